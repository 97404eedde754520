package repository

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithMaxLimit caps TopN and Slice limits. Larger limits are truncated.
func WithMaxLimit(n int) Option {
	return func(s *TreapStore) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}
