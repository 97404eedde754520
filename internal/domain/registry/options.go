package registry

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithWeightTotal sets the total every role's weights must sum to.
func WithWeightTotal(total float64) Option {
	return func(r *Registry) {
		if total > 0 {
			r.weightTotal = total
		}
	}
}

// WithTolerance sets the relative tolerance used by the weight sum check.
func WithTolerance(tol float64) Option {
	return func(r *Registry) {
		if tol >= 0 {
			r.tolerance = tol
		}
	}
}

// WithRuleValidator rejects variables whose rule the validator refuses.
func WithRuleValidator(validate func(rule string) error) Option {
	return func(r *Registry) {
		if validate != nil {
			r.validateRule = validate
		}
	}
}
