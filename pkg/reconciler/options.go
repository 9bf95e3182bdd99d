package reconciler

import (
	"github.com/cbme/epamerge/pkg/errors"
)

// defaultEmptyIDThreshold is the empty-patient-ID share above which a
// merge is flagged low confidence.
const defaultEmptyIDThreshold = 0.3

// options configures a reconciler.
type options struct {
	strategy         Strategy
	emptyIDThreshold float64
}

func defaultOptions() *options {
	return &options{
		strategy:         NewSourcePriorityStrategy(),
		emptyIDThreshold: defaultEmptyIDThreshold,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (options *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithStrategy sets the merge-key resolution strategy.
func WithStrategy(strategy Strategy) Option {
	return func(o *options) error {
		if strategy == nil {
			return &errors.ValidationError{
				Field:   "strategy",
				Message: "cannot be nil",
			}
		}
		o.strategy = strategy
		return nil
	}
}

// WithEmptyIDThreshold sets the empty-patient-ID share above which the
// report carries the low-confidence flag.
func WithEmptyIDThreshold(threshold float64) Option {
	return func(o *options) error {
		if threshold < 0 || threshold > 1 {
			return &errors.ValidationError{
				Field:   "emptyIDThreshold",
				Value:   threshold,
				Message: "must be in [0, 1]",
			}
		}
		o.emptyIDThreshold = threshold
		return nil
	}
}
