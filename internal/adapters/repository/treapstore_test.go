package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

func res(id string, rate float64) model.MatchResult {
	return model.MatchResult{EmployeeID: id, RoleID: "analyst", RoleVersion: 1, FinalMatchRate: rate}
}

func idsOf(rs []model.MatchResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.EmployeeID
	}
	return out
}

func TestTreapStore_PublishAndRead(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	if _, err := store.TopN(ctx, "analyst", 10); !errors.Is(err, ErrRoleNotPublished) {
		t.Fatalf("expected ErrRoleNotPublished, got %v", err)
	}
	if c := store.Count(ctx, "analyst"); c != 0 {
		t.Fatalf("expected count 0, got %d", c)
	}

	err := store.Publish(ctx, "analyst", 1, []model.MatchResult{res("A", 68), res("B", 100), res("C", 68), res("D", 12.5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	top, err := store.TopN(ctx, "analyst", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := fmt.Sprint(idsOf(top)), "[B A C D]"; got != want {
		t.Errorf("expected order %s, got %s", want, got)
	}
	wantRanks := []int{1, 2, 2, 3}
	for i, r := range top {
		if r.Rank != wantRanks[i] {
			t.Errorf("%s: expected rank %d, got %d", r.EmployeeID, wantRanks[i], r.Rank)
		}
	}

	c, err := store.Rank(ctx, "analyst", "C")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Rank != 2 || c.FinalMatchRate != 68 {
		t.Errorf("unexpected entry for C: %+v", c)
	}
	if _, err := store.Rank(ctx, "analyst", "Z"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if v, _ := store.Version(ctx, "analyst"); v != 1 {
		t.Errorf("expected version 1, got %d", v)
	}
	if c := store.Count(ctx, "analyst"); c != 4 {
		t.Errorf("expected count 4, got %d", c)
	}
}

func TestTreapStore_Slice(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(WithMaxLimit(5))

	results := make([]model.MatchResult, 0, 50)
	for i := range 50 {
		results = append(results, res(fmt.Sprintf("e%02d", i), float64(i%17)))
	}
	rand.New(rand.NewSource(7)).Shuffle(len(results), func(i, j int) { results[i], results[j] = results[j], results[i] }) //nolint:gosec // test data
	if err := store.Publish(ctx, "analyst", 1, results); err != nil {
		t.Fatal(err)
	}

	all, err := store.All(ctx, "analyst")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 50 {
		t.Fatalf("expected 50 results, got %d", len(all))
	}
	if !sort.SliceIsSorted(all, func(i, j int) bool {
		return less(all[i].FinalMatchRate, all[i].EmployeeID, all[j].FinalMatchRate, all[j].EmployeeID)
	}) {
		t.Fatal("All is not in rank order")
	}

	for offset := 0; offset < 52; offset += 3 {
		page, err := store.Slice(ctx, "analyst", offset, 10)
		if err != nil {
			t.Fatal(err)
		}
		end := min(offset+5, 50)
		start := min(offset, 50)
		if got, want := fmt.Sprint(idsOf(page)), fmt.Sprint(idsOf(all[start:end])); got != want {
			t.Errorf("offset %d: expected %s, got %s", offset, want, got)
		}
	}

	if _, err := store.Slice(ctx, "analyst", 0, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
	if _, err := store.Slice(ctx, "analyst", -1, 3); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestTreapStore_Republish(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	if err := store.Publish(ctx, "analyst", 1, []model.MatchResult{res("A", 10), res("B", 20)}); err != nil {
		t.Fatal(err)
	}
	next := []model.MatchResult{
		{EmployeeID: "A", RoleID: "analyst", RoleVersion: 2, FinalMatchRate: 90},
		{EmployeeID: "C", RoleID: "analyst", RoleVersion: 2, FinalMatchRate: 50},
	}
	if err := store.Publish(ctx, "analyst", 2, next); err != nil {
		t.Fatal(err)
	}

	top, _ := store.TopN(ctx, "analyst", 10)
	if got := fmt.Sprint(idsOf(top)); got != "[A C]" {
		t.Errorf("expected [A C], got %s", got)
	}
	if _, err := store.Rank(ctx, "analyst", "B"); !errors.Is(err, ErrNotFound) {
		t.Errorf("B should be gone after republish, got %v", err)
	}
	if v, _ := store.Version(ctx, "analyst"); v != 2 {
		t.Errorf("expected version 2, got %d", v)
	}

	err := store.Publish(ctx, "analyst", 3, []model.MatchResult{res("A", 1)})
	if !errors.Is(err, ErrMixedRoles) {
		t.Errorf("expected ErrMixedRoles, got %v", err)
	}
	if v, _ := store.Version(ctx, "analyst"); v != 2 {
		t.Errorf("failed publish must keep version 2, got %d", v)
	}
}

func TestTreapStore_ConcurrentReadersSeeWholeRankings(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	mk := func(version, n int) []model.MatchResult {
		out := make([]model.MatchResult, n)
		for i := range out {
			out[i] = model.MatchResult{EmployeeID: fmt.Sprintf("v%d-%03d", version, i), RoleID: "r", RoleVersion: version, FinalMatchRate: float64(i)}
		}
		return out
	}
	if err := store.Publish(ctx, "r", 1, mk(1, 100)); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for v := 2; v < 40; v++ {
			_ = store.Publish(ctx, "r", v, mk(v, 100))
		}
	}()
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				all, err := store.All(ctx, "r")
				if err != nil || len(all) != 100 {
					t.Errorf("unexpected read: %d results, err %v", len(all), err)
					return
				}
				for _, r := range all {
					if r.RoleVersion != all[0].RoleVersion {
						t.Errorf("mixed versions in one read")
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}

func BenchmarkTreapStore_Publish(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore()
	results := make([]model.MatchResult, 10_000)
	for i := range results {
		results[i] = model.MatchResult{EmployeeID: fmt.Sprintf("e%05d", i), RoleID: "r", RoleVersion: 1, FinalMatchRate: float64(i % 101)}
	}
	b.ResetTimer()
	for b.Loop() {
		_ = store.Publish(ctx, "r", 1, results)
	}
}
