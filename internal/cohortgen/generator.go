// Package cohortgen generates synthetic employee cohorts for a role and drives
// them through a running talent match server.
package cohortgen

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/loader"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

// tier is a performance band expressed as a share of each variable's range.
type tier struct {
	name   string
	low    float64
	spread float64
	rating int
}

// Tiers are drawn uniformly, so average performers dominate through repetition.
var tiers = []tier{
	{"average", 0.30, 0.40, 3},
	{"average", 0.35, 0.30, 3},
	{"high", 0.70, 0.20, 4},
	{"low", 0.01, 0.29, 2},
	{"elite", 0.90, 0.10, 5},
	{"very_low", 0.01, 0.09, 1},
	{"mid_high", 0.60, 0.20, 4},
	{"wide", 0.01, 0.99, 3},
}

// jitter spreads individual variables around the employee's tier.
const jitter = 0.08

var (
	firstNames = []string{"Ayu", "Budi", "Citra", "Dimas", "Eka", "Fajar", "Gita", "Hadi", "Indah", "Joko", "Kartika", "Lukman", "Maya", "Nanda", "Oki", "Putri"}
	lastNames  = []string{"Pratama", "Santoso", "Wijaya", "Saputra", "Lestari", "Hidayat", "Kusuma", "Nugroho", "Rahayu", "Setiawan"}
	themes     = []string{"Achiever", "Analytical", "Arranger", "Communication", "Deliberative", "Discipline", "Focus", "Futuristic", "Learner", "Relator", "Responsibility", "Strategic"}
	positions  = []string{"Analyst", "Senior Analyst", "Specialist", "Officer", "Supervisor"}
	divisions  = []string{"Operations", "Finance", "Technology", "Commercial"}
)

// Generator produces synthetic employee records scored against one role.
type Generator struct {
	size        int
	seed        uint64
	seeded      bool
	missingRate float64
	idPrefix    string
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{size: DefaultSize}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds records with values inside each variable's range. Inverse
// variables are mirrored so a strong tier still scores well.
func (g *Generator) Generate(ctx context.Context, role loader.RoleRecord) ([]loader.EmployeeRecord, error) {
	if len(role.Variables) == 0 {
		return nil, ErrInvalidRole
	}
	rng := g.rand()

	records := make([]loader.EmployeeRecord, 0, g.size)
	for i := range g.size {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation cancelled after %d records: %w", i, err)
		}
		records = append(records, g.employee(rng, role, i))
	}
	return records, nil
}

func (g *Generator) rand() *rand.Rand {
	if g.seeded {
		return rand.New(rand.NewPCG(g.seed, g.seed^0x9e3779b97f4a7c15))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (g *Generator) employee(rng *rand.Rand, role loader.RoleRecord, index int) loader.EmployeeRecord {
	t := tiers[rng.IntN(len(tiers))]
	level := t.low + rng.Float64()*t.spread

	values := make(map[string]any, len(role.Variables))
	for _, v := range role.Variables {
		if g.missingRate > 0 && rng.Float64() < g.missingRate {
			continue
		}
		share := clamp(level + (rng.Float64()*2-1)*jitter)
		if strings.EqualFold(strings.TrimSpace(v.Rule), "inverse") {
			share = 1 - share
		}
		values[v.Name] = min(max(round2(v.Min+share*(v.Max-v.Min)), v.Min), v.Max)
	}

	return loader.EmployeeRecord{
		ID:        g.id(index),
		FullName:  firstNames[rng.IntN(len(firstNames))] + " " + lastNames[rng.IntN(len(lastNames))],
		Values:    values,
		Strengths: pickThemes(rng, loader.MaxStrengths),
		Org: model.Org{
			Division: divisions[rng.IntN(len(divisions))],
			JobLevel: role.JobLevel,
			Position: positions[rng.IntN(len(positions))],
		},
		Rating: t.rating,
	}
}

// id is deterministic for seeded generators and a uuid otherwise.
func (g *Generator) id(index int) string {
	if g.seeded {
		return fmt.Sprintf("%sEMP%04d", g.idPrefix, index+1)
	}
	return g.idPrefix + uuid.NewString()
}

func pickThemes(rng *rand.Rand, n int) []string {
	perm := rng.Perm(len(themes))
	out := make([]string, n)
	for i := range n {
		out[i] = themes[perm[i]]
	}
	return out
}

func clamp(x float64) float64 {
	return min(max(x, 0), 1)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
