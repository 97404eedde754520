package scoring

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithConcurrency sets how many goroutines ScoreBatch may use. Values below 2 score sequentially.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithRules replaces the rule lookup.
func WithRules(r *Rules) Option {
	return func(e *Engine) {
		if r != nil {
			e.rules = r
		}
	}
}
