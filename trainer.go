package ksvd

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/reggo/ksvd/linalg"
)

// Report describes a single training run.
type Report struct {
	// Iterations is the number of sparse coding steps performed.
	Iterations int
	// Errors holds ‖X − ΓD‖_F measured after each sparse coding step.
	Errors []float64
	// Converged is true if training stopped because the error fell below tol.
	Converged bool
	// SkippedAtoms counts atom updates skipped for an empty active set,
	// summed over all passes.
	SkippedAtoms int
}

// Trainer runs the Approximate K-SVD iterations. The zero value is not
// usable; Model builds one from its options.
type Trainer struct {
	NumComponents int
	NonzeroCoefs  int
	MaxIter       int
	Tol           float64
	Backend       linalg.Backend
	Logger        *zap.Logger
}

// Train learns a dictionary from data. data is never modified.
func (t *Trainer) Train(data mat.Matrix) (*mat.Dense, *Report, error) {
	x := asDense(data)
	nSamples, nFeatures := x.Dims()

	dict, err := initialize(t.Backend, x, t.NumComponents)
	if err != nil {
		return nil, nil, err
	}
	if err := normalizeRows(dict, "init"); err != nil {
		return nil, nil, err
	}

	report := &Report{}
	for iter := 0; iter < t.MaxIter; iter++ {
		codes, err := sparseCode(t.Backend, dict, x, t.NonzeroCoefs)
		if err != nil {
			return nil, nil, err
		}
		e := reconstructionError(x, codes, dict)
		report.Iterations++
		report.Errors = append(report.Errors, e)
		if e < t.Tol {
			report.Converged = true
			t.Logger.Debug("reconstruction error below tolerance",
				zap.Int("iter", iter), zap.Float64("error", e), zap.Float64("tol", t.Tol))
			break
		}

		skipped, err := updateDictionary(x, dict, codes)
		report.SkippedAtoms += skipped
		if err != nil {
			return nil, nil, err
		}
		t.Logger.Debug("dictionary updated",
			zap.Int("iter", iter), zap.Float64("error", e), zap.Int("skipped_atoms", skipped))
	}

	fields := []zap.Field{
		zap.Int("samples", nSamples),
		zap.Int("features", nFeatures),
		zap.Int("components", t.NumComponents),
		zap.Int("iterations", report.Iterations),
		zap.Bool("converged", report.Converged),
	}
	if n := len(report.Errors); n > 0 {
		fields = append(fields, zap.Float64("error", report.Errors[n-1]))
	}
	t.Logger.Info("ksvd training finished", fields...)
	return dict, report, nil
}

// asDense returns data as a *mat.Dense, copying only when needed. The
// result must be treated as read-only.
func asDense(data mat.Matrix) *mat.Dense {
	if d, ok := data.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(data)
}
