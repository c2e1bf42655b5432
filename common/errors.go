package common

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoData         error = errors.New("ksvd: nil or empty data")
	ErrDimension      error = errors.New("ksvd: dimension mismatch")
	ErrDegenerate     error = errors.New("ksvd: degenerate atom")
	ErrNotFitted      error = errors.New("ksvd: model is not fitted")
	ErrNotFinite      error = errors.New("ksvd: data contains NaN or Inf")
	ErrHyperparameter error = errors.New("ksvd: invalid hyperparameter")
)

// DimensionMismatch is returned when the number of components is not
// smaller than both dimensions of the training data.
type DimensionMismatch struct {
	Components int
	Samples    int
	Features   int
}

func (d *DimensionMismatch) Error() string {
	return fmt.Sprintf("ksvd: n_components must be less than min(n_samples, n_features). components: %v, samples: %v, features: %v",
		d.Components, d.Samples, d.Features)
}

func (d *DimensionMismatch) Is(target error) bool {
	return target == ErrDimension
}

// FeatureMismatch is returned when data does not have the number of
// columns the dictionary was built for.
type FeatureMismatch struct {
	Want int
	Got  int
}

func (f *FeatureMismatch) Error() string {
	return fmt.Sprintf("ksvd: feature mismatch. expected: %v, found: %v", f.Want, f.Got)
}

func (f *FeatureMismatch) Is(target error) bool {
	return target == ErrDimension
}

// DegenerateAtom reports an atom whose direction has zero (or non-finite)
// norm and so cannot be normalized. Stage is "init" or "update".
type DegenerateAtom struct {
	Atom  int
	Stage string
}

func (d *DegenerateAtom) Error() string {
	return fmt.Sprintf("ksvd: atom %v has zero norm during %v", d.Atom, d.Stage)
}

func (d *DegenerateAtom) Is(target error) bool {
	return target == ErrDegenerate
}

// VerifyData returns ErrNoData if data is nil or has no entries and
// ErrNotFinite if any entry is NaN or ±Inf.
func VerifyData(data mat.Matrix) error {
	if data == nil {
		return ErrNoData
	}
	nSamples, nFeatures := data.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return ErrNoData
	}
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nFeatures; j++ {
			v := data.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return ErrNotFinite
			}
		}
	}
	return nil
}
