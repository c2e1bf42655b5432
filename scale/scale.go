// Package scale preprocesses training data feature by feature before a
// dictionary is learned. A fitted pipeline keeps its Scaler so the same
// transformation is applied to every later Transform.
package scale

import (
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/reggo/ksvd/common"
)

func init() {
	gob.Register(None{})
	gob.Register(Linear{})
	gob.Register(Normal{})

	common.Register(&None{})
	common.Register(&Linear{})
	common.Register(&Normal{})
}

// Grain bounds for the parallel row loops.
const (
	minGrain = 1
	maxGrain = 500
)

var ErrTooFewSamples = errors.New("scale: less than two inputs")

// UniformDimension is returned by SetScale when every sample has the same
// value in some features. Dims lists those features. The scale is still set.
type UniformDimension struct {
	Dims []int
}

func (u *UniformDimension) Error() string {
	return fmt.Sprintf("scale: features %v have a single value", u.Dims)
}

type UnequalLength struct{}

func (u UnequalLength) Error() string {
	return "scale: data length mismatch"
}

// Scaler transforms data points so every feature is on a comparable scale.
// It is assumed that data that can be scaled can also be unscaled.
type Scaler interface {
	Scale(point []float64) error     // Scales (in place) the data point
	Unscale(point []float64) error   // Unscales (in place) the data point
	IsScaled() bool                  // Returns true if the scale for this type has already been set
	Dimensions() int                 // Number of features for which the data was scaled
	SetScale(data *mat.Dense) error  // Uses the input data to set the scale
}

// ByName returns an unset Scaler for one of "none", "linear" or "normal".
// The empty string is treated as "none".
func ByName(name string) (Scaler, error) {
	switch name {
	case "", "none":
		return &None{}, nil
	case "linear":
		return &Linear{}, nil
	case "normal":
		return &Normal{}, nil
	}
	return nil, fmt.Errorf("scale: unknown scaler %q", name)
}

type SliceError struct {
	Header string
	Idx    int
	Err    error
}

func (s *SliceError) Error() string {
	return fmt.Sprintf("%v: element %v, error %v", s.Header, s.Idx, s.Err)
}

type ErrorList []*SliceError

func (e ErrorList) Error() string {
	return fmt.Sprintf("%v errors found", len(e))
}

// ScaleData scales every row of data in place, in parallel.
func ScaleData(scaler Scaler, data *mat.Dense) error {
	return applyRows("scale", scaler.Scale, data)
}

// UnscaleData unscales every row of data in place, in parallel.
func UnscaleData(scaler Scaler, data *mat.Dense) error {
	return applyRows("unscale", scaler.Unscale, data)
}

func applyRows(header string, fn func([]float64) error, data *mat.Dense) error {
	m := &sync.Mutex{}
	var e ErrorList
	f := func(start, end int) {
		for r := start; r < end; r++ {
			if err := fn(data.RawRowView(r)); err != nil {
				m.Lock()
				e = append(e, &SliceError{Header: header, Idx: r, Err: err})
				m.Unlock()
			}
		}
	}

	nSamples, _ := data.Dims()
	common.ParallelFor(nSamples, common.GetGrainSize(nSamples, minGrain, maxGrain), f)
	if len(e) != 0 {
		return e
	}
	return nil
}

// None is a type specifying no transformation of the input should be done
type None struct {
	Dim    int
	Scaled bool
}

func (n *None) IsScaled() bool {
	return n.Scaled
}

func (n *None) Scale(x []float64) error {
	if len(x) != n.Dim {
		return UnequalLength{}
	}
	return nil
}

func (n *None) Unscale(x []float64) error {
	if len(x) != n.Dim {
		return UnequalLength{}
	}
	return nil
}

func (n *None) Dimensions() int {
	return n.Dim
}

// SetScale records the number of features. Unlike the other scalers a single
// sample is enough.
func (n *None) SetScale(data *mat.Dense) error {
	rows, cols := data.Dims()
	if rows < 1 {
		return ErrTooFewSamples
	}
	n.Dim = cols
	n.Scaled = true
	return nil
}

// Linear scales every feature to lie between 0 and 1
type Linear struct {
	Min    []float64 // Minimum value of each feature
	Max    []float64 // Maximum value of each feature
	Scaled bool
	Dim    int
}

// IsScaled returns true if the scale has been set
func (l *Linear) IsScaled() bool {
	return l.Scaled
}

// Dimensions returns the length of the data point
func (l *Linear) Dimensions() int {
	return l.Dim
}

// SetScale finds the minimum and maximum of every feature. If they are
// identical, the minimum and maximum are set to that value ∓ 0.5 and a
// *UniformDimension is returned.
func (l *Linear) SetScale(data *mat.Dense) error {
	rows, dim := data.Dims()
	if rows < 2 {
		return ErrTooFewSamples
	}

	l.Min = make([]float64, dim)
	l.Max = make([]float64, dim)
	col := make([]float64, rows)
	var unifError *UniformDimension
	for j := 0; j < dim; j++ {
		mat.Col(col, j, data)
		l.Min[j] = floats.Min(col)
		l.Max[j] = floats.Max(col)
		if l.Min[j] == l.Max[j] {
			if unifError == nil {
				unifError = &UniformDimension{}
			}
			unifError.Dims = append(unifError.Dims, j)
			l.Min[j] -= 0.5
			l.Max[j] += 0.5
		}
	}
	l.Scaled = true
	l.Dim = dim
	if unifError != nil {
		return unifError
	}
	return nil
}

// Scale scales the point, returning an error if the length doesn't match
func (l *Linear) Scale(point []float64) error {
	if len(point) != l.Dim {
		return UnequalLength{}
	}
	for i, val := range point {
		point[i] = (val - l.Min[i]) / (l.Max[i] - l.Min[i])
	}
	return nil
}

func (l *Linear) Unscale(point []float64) error {
	if len(point) != l.Dim {
		return UnequalLength{}
	}
	for i, val := range point {
		point[i] = val*(l.Max[i]-l.Min[i]) + l.Min[i]
	}
	return nil
}

// Normal scales the data to have a mean of 0 and a variance of 1
// in each feature
type Normal struct {
	Mu     []float64
	Sigma  []float64
	Dim    int
	Scaled bool
}

// IsScaled returns true if the scale has been set
func (n *Normal) IsScaled() bool {
	return n.Scaled
}

// Dimensions returns the length of the data point
func (n *Normal) Dimensions() int {
	return n.Dim
}

// SetScale finds the mean and the (population) standard deviation of every
// feature. A feature with zero deviation gets a deviation of 1.0 and a
// *UniformDimension is returned.
func (n *Normal) SetScale(data *mat.Dense) error {
	rows, dim := data.Dims()
	if rows < 2 {
		return ErrTooFewSamples
	}

	n.Mu = make([]float64, dim)
	n.Sigma = make([]float64, dim)
	col := make([]float64, rows)
	popCorrection := float64(rows-1) / float64(rows)
	var unifError *UniformDimension
	for j := 0; j < dim; j++ {
		mat.Col(col, j, data)
		mean, variance := stat.MeanVariance(col, nil)
		n.Mu[j] = mean
		n.Sigma[j] = math.Sqrt(variance * popCorrection)
		if n.Sigma[j] == 0 {
			if unifError == nil {
				unifError = &UniformDimension{}
			}
			unifError.Dims = append(unifError.Dims, j)
			n.Sigma[j] = 1.0
		}
	}
	n.Scaled = true
	n.Dim = dim
	if unifError != nil {
		return unifError
	}
	return nil
}

// Scale scales the data point
func (n *Normal) Scale(point []float64) error {
	if len(point) != n.Dim {
		return UnequalLength{}
	}
	for i := range point {
		point[i] = (point[i] - n.Mu[i]) / n.Sigma[i]
	}
	return nil
}

// Unscale unscales the data point
func (n *Normal) Unscale(point []float64) error {
	if len(point) != n.Dim {
		return UnequalLength{}
	}
	for i := range point {
		point[i] = point[i]*n.Sigma[i] + n.Mu[i]
	}
	return nil
}
