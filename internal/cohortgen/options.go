package cohortgen

// DefaultSize is the number of employees generated when no size is set.
const DefaultSize = 50

// Option configures a Generator.
type Option func(*Generator)

// WithSize sets how many employees are generated.
func WithSize(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.size = n
		}
	}
}

// WithSeed makes generation reproducible.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.seed = seed
		g.seeded = true
	}
}

// WithMissingRate sets the probability that a value is left out. Values outside [0, 1) are ignored.
func WithMissingRate(rate float64) Option {
	return func(g *Generator) {
		if rate >= 0 && rate < 1 {
			g.missingRate = rate
		}
	}
}

// WithIDPrefix prefixes generated employee ids.
func WithIDPrefix(prefix string) Option {
	return func(g *Generator) {
		g.idPrefix = prefix
	}
}
