package narrative

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

const (
	// MinBenchmarks and MaxBenchmarks bound the benchmark employees in a brief.
	MinBenchmarks = 1
	MaxBenchmarks = 3
)

// Benchmark is a high performer the narrative is anchored on.
type Benchmark struct {
	EmployeeID string
	FullName   string
	Result     model.MatchResult
}

// Brief is everything a provider sees about a role.
type Brief struct {
	RoleID      string
	RoleName    string
	JobLevel    string
	Purpose     string
	Variables   []model.WeightedVariable
	Separations []model.Separation
	Benchmarks  []Benchmark
}

// Validate reports every problem with the brief at once.
func (b Brief) Validate() error {
	var err error
	if strings.TrimSpace(b.RoleName) == "" && strings.TrimSpace(b.RoleID) == "" {
		err = multierr.Append(err, fmt.Errorf("%w: role name is required", ErrInvalidBrief))
	}
	if len(b.Variables) == 0 {
		err = multierr.Append(err, fmt.Errorf("%w: role has no variables", ErrInvalidBrief))
	}
	if n := len(b.Benchmarks); n < MinBenchmarks || n > MaxBenchmarks {
		err = multierr.Append(err, fmt.Errorf("%w: need %d to %d benchmark employees, got %d",
			ErrInvalidBrief, MinBenchmarks, MaxBenchmarks, n))
	}
	seen := make(map[string]struct{}, len(b.Benchmarks))
	for _, bm := range b.Benchmarks {
		if _, dup := seen[bm.EmployeeID]; dup {
			err = multierr.Append(err, fmt.Errorf("%w: benchmark %q listed twice", ErrInvalidBrief, bm.EmployeeID))
		}
		seen[bm.EmployeeID] = struct{}{}
	}
	return err
}

func (b Brief) title() string {
	if b.RoleName != "" {
		return b.RoleName
	}
	return b.RoleID
}
