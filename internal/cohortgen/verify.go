package cohortgen

import (
	"fmt"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

// VerifyRanking checks that results are ordered by final match rate descending,
// ties by employee id ascending, and that ranks run 1..n from offset+1.
func VerifyRanking(results []model.MatchResult, offset int) error {
	for i, r := range results {
		if want := offset + i + 1; r.Rank != want {
			return fmt.Errorf("%w: %s has rank %d, want %d", ErrInconsistentRanking, r.EmployeeID, r.Rank, want)
		}
		if i == 0 {
			continue
		}
		prev := results[i-1]
		if r.FinalMatchRate > prev.FinalMatchRate {
			return fmt.Errorf("%w: %s (%.3f) ranks below %s (%.3f)",
				ErrInconsistentRanking, r.EmployeeID, r.FinalMatchRate, prev.EmployeeID, prev.FinalMatchRate)
		}
		if r.FinalMatchRate == prev.FinalMatchRate && r.EmployeeID < prev.EmployeeID {
			return fmt.Errorf("%w: tie between %s and %s not broken by id", ErrInconsistentRanking, prev.EmployeeID, r.EmployeeID)
		}
	}
	return nil
}

// VerifyConsistency checks that the top of a fetched ranking matches the top
// of the scoring response.
func VerifyConsistency(scored, fetched []model.MatchResult) error {
	n := min(len(scored), len(fetched))
	for i := range n {
		if scored[i].EmployeeID != fetched[i].EmployeeID {
			return fmt.Errorf("%w: position %d is %s in the response and %s in the ranking",
				ErrInconsistentRanking, i+1, scored[i].EmployeeID, fetched[i].EmployeeID)
		}
		if scored[i].FinalMatchRate != fetched[i].FinalMatchRate {
			return fmt.Errorf("%w: %s scored %.3f but ranks with %.3f",
				ErrInconsistentRanking, scored[i].EmployeeID, scored[i].FinalMatchRate, fetched[i].FinalMatchRate)
		}
	}
	return nil
}
