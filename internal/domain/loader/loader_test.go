package loader_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/loader"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/multierr"
)

func TestLoadEmployees(t *testing.T) {
	Convey("Given a batch of raw employee records", t, func() {
		records := []loader.EmployeeRecord{
			{ID: " e1 ", FullName: "Ana", Values: map[string]any{"iq": 110, "gtq": json.Number("27.5"), "pauli": "60", "tiki": nil}},
			{ID: "e2", Values: map[string]any{"iq": "abc", "gtq": math.NaN(), "pauli": math.Inf(1)}, Rating: 9},
			{ID: "e3", Values: map[string]any{"iq": 100}},
			{ID: "e3", Values: map[string]any{"iq": 120}},
			{ID: "", Values: map[string]any{"iq": true}},
			{ID: "e4", Values: map[string]any{"iq": float32(99)}, Strengths: []string{"Achiever", "Learner", "Focus", "Arranger", "Analytical", "Restorative"}},
		}

		batch := loader.LoadEmployees(records)

		Convey("Then valid records load in input order", func() {
			So(batch.Profiles, ShouldHaveLength, 2)
			So(batch.Profiles[0].ID, ShouldEqual, "e1")
			So(batch.Profiles[0].Values, ShouldResemble, map[string]float64{"iq": 110, "gtq": 27.5, "pauli": 60})
			So(batch.Profiles[1].ID, ShouldEqual, "e4")
		})

		Convey("Then strengths are capped at five", func() {
			So(batch.Profiles[1].Strengths, ShouldHaveLength, loader.MaxStrengths)
			So(batch.Profiles[1].Strengths[0], ShouldEqual, "Achiever")
		})

		Convey("Then every offending field is reported", func() {
			So(batch.Rejected, ShouldHaveLength, 4)
			e2 := batch.Rejected[0]
			So(e2.RecordID, ShouldEqual, "e2")
			fields := make([]string, 0, len(e2.Issues))
			for _, is := range e2.Issues {
				fields = append(fields, is.Field)
			}
			So(fields, ShouldResemble, []string{"values.gtq", "values.iq", "values.pauli", "rating"})
		})

		Convey("Then every occurrence of a duplicated id is rejected", func() {
			So(batch.Rejected[1].RecordID, ShouldEqual, "e3")
			So(batch.Rejected[2].RecordID, ShouldEqual, "e3")
			So(batch.Rejected[2].Error(), ShouldContainSubstring, "duplicate")
		})

		Convey("Then a record without id reports both problems", func() {
			last := batch.Rejected[3]
			So(last.Issues, ShouldHaveLength, 2)
			So(last.Error(), ShouldContainSubstring, "<no id>")
		})

		Convey("Then Err combines the rejections", func() {
			err := batch.Err()
			So(multierr.Errors(err), ShouldHaveLength, 4)
			So(errors.Is(err, loader.ErrValidation), ShouldBeTrue)
		})
	})

	Convey("Given only valid records", t, func() {
		batch := loader.LoadEmployees([]loader.EmployeeRecord{{ID: "a", Values: map[string]any{"x": int64(1)}}})
		So(batch.Err(), ShouldBeNil)
		So(batch.Profiles, ShouldHaveLength, 1)
	})
}

func TestLoadRole(t *testing.T) {
	Convey("Given a role record", t, func() {
		rec := loader.RoleRecord{
			ID:   "analyst",
			Name: "Analyst",
			Variables: []loader.RoleVariableRecord{
				{Name: "accuracy", Weight: 0.6, Min: 0, Max: 100},
				{Name: "speed", Weight: 0.4, Min: 0, Max: 100, Rule: "inverse", Group: "Cognitive"},
			},
		}

		Convey("When it is valid", func() {
			def, err := loader.LoadRole(rec)
			So(err, ShouldBeNil)
			So(def.Spec.ID, ShouldEqual, "analyst")
			So(def.Variables[1], ShouldResemble, model.Variable{Name: "speed", Range: model.Range{Min: 0, Max: 100}, Rule: "inverse", Group: "Cognitive"})
			So(def.Weights[0].Weight, ShouldEqual, 0.6)
		})

		Convey("When several fields are broken", func() {
			rec.ID = ""
			rec.Variables[0].Name = ""
			rec.Variables[1].Weight = -1
			rec.Variables[1].Max = -5

			_, err := loader.LoadRole(rec)

			Convey("Then all of them are listed", func() {
				var verr *loader.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Issues, ShouldHaveLength, 4)
			})
		})

		Convey("When it lists no variables", func() {
			_, err := loader.LoadRole(loader.RoleRecord{ID: "empty"})
			So(errors.Is(err, loader.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestYAML(t *testing.T) {
	Convey("Given role and cohort YAML", t, func() {
		roleYAML := `
id: analyst
name: Analyst
variables:
  - {name: accuracy, weight: 0.6, min: 0, max: 100}
  - {name: speed, weight: 0.4, min: 0, max: 100, group: Cognitive}
`
		cohortYAML := `
employees:
  - id: A
    values: {accuracy: 80, speed: 50.5}
    strengths: [Achiever]
    org: {department: Finance, position: Analyst}
    rating: 5
`
		Convey("Then both decode", func() {
			role, err := loader.DecodeRoleYAML(strings.NewReader(roleYAML))
			So(err, ShouldBeNil)
			So(role.Variables, ShouldHaveLength, 2)
			So(role.Variables[1].Group, ShouldEqual, "Cognitive")

			recs, err := loader.DecodeEmployeesYAML(strings.NewReader(cohortYAML))
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 1)
			So(recs[0].Org.Department, ShouldEqual, "Finance")

			batch := loader.LoadEmployees(recs)
			So(batch.Err(), ShouldBeNil)
			So(batch.Profiles[0].Values["speed"], ShouldEqual, 50.5)
			So(batch.Profiles[0].Values["accuracy"], ShouldEqual, 80.0)
		})

		Convey("Then an encoded cohort decodes back", func() {
			var buf bytes.Buffer
			in := []loader.EmployeeRecord{{ID: "x", Values: map[string]any{"iq": 101.5}}}
			So(loader.EncodeEmployeesYAML(&buf, in), ShouldBeNil)
			out, err := loader.DecodeEmployeesYAML(&buf)
			So(err, ShouldBeNil)
			So(out[0].ID, ShouldEqual, "x")
			So(out[0].Values["iq"], ShouldEqual, 101.5)
		})

		Convey("Then unknown keys are rejected", func() {
			_, err := loader.DecodeRoleYAML(strings.NewReader("id: x\ncolour: blue\n"))
			So(err, ShouldNotBeNil)
		})
	})
}
