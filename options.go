package ksvd

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/reggo/ksvd/common"
	"github.com/reggo/ksvd/linalg"
)

// Defaults for the optional hyperparameters.
const (
	DefaultMaxIter = 2
	DefaultTol     = 1e-6
)

// Option configures a Model at construction.
type Option func(*options) error

type options struct {
	nonzeroCoefs int // 0 means nComponents
	maxIter      int
	tol          float64
	backend      linalg.Backend
	logger       *zap.Logger
}

func defaultOptions() options {
	return options{
		maxIter: DefaultMaxIter,
		tol:     DefaultTol,
		backend: linalg.Gonum{},
		logger:  zap.NewNop(),
	}
}

// WithNonzeroCoefs sets the sparsity budget per sample. It must be in
// [1, nComponents]; by default it equals nComponents.
func WithNonzeroCoefs(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return fmt.Errorf("%w: n_nonzero_coefs must be positive, got %d", common.ErrHyperparameter, n)
		}
		o.nonzeroCoefs = n
		return nil
	}
}

// WithMaxIter sets the number of coding/update iterations. Zero returns the
// normalized SVD initialization.
func WithMaxIter(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return fmt.Errorf("%w: max_iter must be non-negative, got %d", common.ErrHyperparameter, n)
		}
		o.maxIter = n
		return nil
	}
}

// WithTol sets the Frobenius reconstruction error below which training stops.
func WithTol(tol float64) Option {
	return func(o *options) error {
		if tol < 0 || math.IsNaN(tol) {
			return fmt.Errorf("%w: tol must be non-negative, got %v", common.ErrHyperparameter, tol)
		}
		o.tol = tol
		return nil
	}
}

// WithBackend replaces the gonum SVD and matching pursuit primitives.
func WithBackend(b linalg.Backend) Option {
	return func(o *options) error {
		if b == nil {
			return fmt.Errorf("%w: nil backend", common.ErrHyperparameter)
		}
		o.backend = b
		return nil
	}
}

// WithLogger sets the logger used during training.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) error {
		if l == nil {
			l = zap.NewNop()
		}
		o.logger = l
		return nil
	}
}

// shareLogger hands the training logger to a gonum backend that has none.
func (o *options) shareLogger() {
	if g, ok := o.backend.(linalg.Gonum); ok && g.Logger == nil {
		g.Logger = o.logger
		o.backend = g
	}
}
