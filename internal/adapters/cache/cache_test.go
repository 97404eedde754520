package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/cache"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

func TestKeys(t *testing.T) {
	Convey("Cache keys carry role and version", t, func() {
		So(cache.RankingKey("analyst", 3), ShouldEqual, "talentmatch:ranking:analyst:v3")
		So(cache.PatternKey("analyst", 3, 0.25), ShouldEqual, "talentmatch:pattern:analyst:v3:q0.25")
	})
}

func TestUnreachableRedisDegrades(t *testing.T) {
	Convey("Given a client pointing at a closed port", t, func() {
		client := redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 50 * time.Millisecond,
			MaxRetries:  -1,
		})
		defer client.Close()
		c := cache.NewRedisCache(client, time.Minute, nil)
		ctx := context.Background()

		Convey("Then every call degrades to a miss without panicking", func() {
			c.SetRanking(ctx, "analyst", 1, []model.MatchResult{{EmployeeID: "A"}})
			got, ok := c.GetRanking(ctx, "analyst", 1)
			So(ok, ShouldBeFalse)
			So(got, ShouldBeNil)

			c.SetPattern(ctx, model.SuccessPattern{RoleID: "analyst", RoleVersion: 1, TopQuantile: 0.25})
			_, ok = c.GetPattern(ctx, "analyst", 1, 0.25)
			So(ok, ShouldBeFalse)

			So(func() { c.Invalidate(ctx, "analyst") }, ShouldNotPanic)
		})
	})

	Convey("Dial fails fast on an unreachable server", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, err := cache.Dial(ctx, cache.Config{Addr: "127.0.0.1:1"}, nil)
		So(err, ShouldNotBeNil)
	})
}

func TestNop(t *testing.T) {
	Convey("The nop cache never hits", t, func() {
		var c cache.Cache = cache.Nop{}
		ctx := context.Background()
		c.SetRanking(ctx, "r", 1, nil)
		_, ok := c.GetRanking(ctx, "r", 1)
		So(ok, ShouldBeFalse)
		_, ok = c.GetPattern(ctx, "r", 1, 0.5)
		So(ok, ShouldBeFalse)
		c.Invalidate(ctx, "r")
	})
}
