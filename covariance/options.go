package covariance

import (
	"github.com/YuminosukeSato/scicov/pkg/log"
)

// Option configures an EmpiricalCovariance.
type Option func(*EmpiricalCovariance)

// WithStorePrecision sets whether Fit caches the precision matrix.
// Precision is always available; this only controls caching.
func WithStorePrecision(store bool) Option {
	return func(e *EmpiricalCovariance) {
		e.storePrecision = store
	}
}

// WithAssumeCentered sets whether the data are treated as already centered:
// the location is then the zero vector and the covariance is XᵀX / n.
func WithAssumeCentered(centered bool) Option {
	return func(e *EmpiricalCovariance) {
		e.assumeCentered = centered
	}
}

// WithLogger sets the logger used by the estimator.
func WithLogger(logger log.Logger) Option {
	return func(e *EmpiricalCovariance) {
		e.logger = logger
	}
}
