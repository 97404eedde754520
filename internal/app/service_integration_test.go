package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/storage"
	service "github.com/rezamiaw/dashboard-talent-match-intelligence/internal/app"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/loader"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

func seededStore(t *testing.T, n int) *storage.SQLStore {
	t.Helper()
	ctx := context.Background()
	st, err := storage.Open(ctx, storage.DriverSQLite, filepath.Join(t.TempDir(), "talent.db"), nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.SaveRole(ctx, analystRole()); err != nil {
		t.Fatalf("save role: %v", err)
	}
	batch := loader.LoadEmployees(cohort(n))
	if err := st.SaveEmployees(ctx, batch.Profiles); err != nil {
		t.Fatalf("save employees: %v", err)
	}
	return st
}

func waitRun(svc *service.Service, id string) model.RunStatus {
	deadline := time.Now().Add(5 * time.Second)
	for {
		st, err := svc.GetRun(id)
		if err == nil && st.State.Done() || time.Now().After(deadline) {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestAsyncRunFromStorage(t *testing.T) {
	Convey("Given a service backed by SQLite", t, func() {
		ctx := context.Background()
		st := seededStore(t, 8)
		svc := service.New(service.WithStorage(st, st), service.WithWorkerCount(2))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("The stored role is registered on start", func() {
			p, err := svc.Role("analyst")
			So(err, ShouldBeNil)
			So(p.Variables, ShouldHaveLength, 2)
		})

		Convey("When a run is submitted with an idempotency key", func() {
			first, dup, err := svc.SubmitRun(ctx, "analyst", "", "batch-1")
			So(err, ShouldBeNil)
			So(dup, ShouldBeFalse)
			So(first.State, ShouldEqual, model.RunQueued)

			again, dup, err := svc.SubmitRun(ctx, "analyst", "", "batch-1")
			So(err, ShouldBeNil)
			So(dup, ShouldBeTrue)
			So(again.RunID, ShouldEqual, first.RunID)

			Convey("Then the run succeeds and its ranking is published and persisted", func() {
				done := waitRun(svc, first.RunID)
				So(done.State, ShouldEqual, model.RunSucceeded)
				So(done.Scored, ShouldEqual, 8)
				So(done.StartedAt, ShouldNotBeNil)
				So(done.FinishedAt, ShouldNotBeNil)

				page, err := svc.Ranking(ctx, "analyst", service.RankingQuery{})
				So(err, ShouldBeNil)
				So(page.Results[0].EmployeeID, ShouldEqual, "E01")

				stored, err := st.FetchResults(ctx, "analyst")
				So(err, ShouldBeNil)
				So(stored, ShouldHaveLength, 8)

				pattern, ok, err := st.FetchPattern(ctx, "analyst")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(pattern.TopSize, ShouldEqual, 2)

				Convey("And a restarted service restores the ranking", func() {
					next := service.New(service.WithStorage(st, st))
					So(next.Start(ctx), ShouldBeNil)
					defer func() { _ = next.Stop(ctx) }()

					res, err := next.EmployeeResult(ctx, "analyst", "E03")
					So(err, ShouldBeNil)
					So(res.Rank, ShouldEqual, 3)
					So(res.GroupRates, ShouldContainKey, "Competency")
					So(res.GroupRates, ShouldContainKey, "Cognitive")

					found, err := next.Ranking(ctx, "analyst", service.RankingQuery{Query: "Employee 8"})
					So(err, ShouldBeNil)
					So(found.Results, ShouldHaveLength, 1)
				})
			})
		})

		Convey("When a run targets a role nobody defined", func() {
			run, _, err := svc.SubmitRun(ctx, "ghost", "", "")
			So(err, ShouldBeNil)
			done := waitRun(svc, run.RunID)
			So(done.State, ShouldEqual, model.RunFailed)
			So(done.Error, ShouldContainSubstring, "ghost")
		})

		Convey("When the run id is unknown", func() {
			_, err := svc.GetRun("nope")
			So(errors.Is(err, service.ErrRunNotFound), ShouldBeTrue)
		})
	})
}

func TestBackpressure(t *testing.T) {
	Convey("Given a queue of one and no running workers", t, func() {
		ctx := context.Background()
		st := seededStore(t, 3)
		svc := service.New(service.WithStorage(st, st), service.WithQueueSize(1))

		_, _, err := svc.SubmitRun(ctx, "analyst", "", "k1")
		So(err, ShouldBeNil)

		Convey("The next submission is refused and its key released", func() {
			_, _, err := svc.SubmitRun(ctx, "analyst", "", "k2")
			So(errors.Is(err, service.ErrBackpressure), ShouldBeTrue)
			So(svc.Stats(ctx)["dedupeKeys"], ShouldEqual, int64(1))
		})
	})
}
