package scoring_test

import (
	"errors"
	"testing"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRules(t *testing.T) {
	rng := model.Range{Min: 0, Max: 200}

	Convey("Given the default rules", t, func() {
		rules := scoring.DefaultRules()

		Convey("Linear scales and clamps", func() {
			r, err := rules.Lookup("")
			So(err, ShouldBeNil)
			So(r.SubScore(50, rng), ShouldEqual, 0.25)
			So(r.SubScore(-1, rng), ShouldEqual, 0.0)
			So(r.SubScore(201, rng), ShouldEqual, 1.0)
		})

		Convey("Inverse rewards low values", func() {
			r, err := rules.Lookup(scoring.RuleInverse)
			So(err, ShouldBeNil)
			So(r.SubScore(50, rng), ShouldEqual, 0.75)
			So(r.SubScore(-10, rng), ShouldEqual, 1.0)
		})

		Convey("Bands return the score of the highest threshold reached", func() {
			r, err := rules.Lookup("bands:50=0.5, 150=1")
			So(err, ShouldBeNil)
			So(r.SubScore(10, rng), ShouldEqual, 0.0)
			So(r.SubScore(50, rng), ShouldEqual, 0.5)
			So(r.SubScore(149, rng), ShouldEqual, 0.5)
			So(r.SubScore(999, rng), ShouldEqual, 1.0)
		})

		Convey("Malformed bands and unknown names are rejected", func() {
			for _, spec := range []string{"cubic", "bands:", "bands:80=1,50=0.5", "bands:50=2", "bands:x=1", "bands:50", "bands:50=0.1,50=0.2"} {
				So(errors.Is(rules.Validate(spec), scoring.ErrUnknownRule), ShouldBeTrue)
			}
		})

		Convey("Custom rules can be registered", func() {
			rules.Register("half", scoring.RuleFunc(func(float64, model.Range) float64 { return 0.5 }))
			r, err := rules.Lookup("half")
			So(err, ShouldBeNil)
			So(r.SubScore(0, rng), ShouldEqual, 0.5)
		})
	})
}
