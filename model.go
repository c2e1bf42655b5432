package ksvd

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/reggo/ksvd/common"
	"github.com/reggo/ksvd/linalg"
	"github.com/reggo/ksvd/loss"
)

// Model is an Approximate K-SVD dictionary. Hyperparameters are fixed by New;
// the dictionary is set by Fit (or FromComponents) and is not changed by any
// other method, so Transform may be called from several goroutines once Fit
// has returned.
type Model struct {
	nComponents int
	options

	components *mat.Dense
	report     *Report
}

// New returns an unfitted Model with nComponents atoms.
func New(nComponents int, opts ...Option) (*Model, error) {
	if nComponents < 1 {
		return nil, fmt.Errorf("%w: n_components must be positive, got %d", common.ErrHyperparameter, nComponents)
	}
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	if o.nonzeroCoefs == 0 {
		o.nonzeroCoefs = nComponents
	}
	o.shareLogger()
	if o.nonzeroCoefs > nComponents {
		return nil, fmt.Errorf("%w: n_nonzero_coefs %d exceeds n_components %d", common.ErrHyperparameter, o.nonzeroCoefs, nComponents)
	}
	return &Model{
		nComponents: nComponents,
		options:     o,
	}, nil
}

// FromComponents returns a fitted Model whose dictionary is a copy of
// components (nComponents × nFeatures). Rows are used as given; they are not
// normalized.
func FromComponents(components mat.Matrix, opts ...Option) (*Model, error) {
	if err := common.VerifyData(components); err != nil {
		return nil, err
	}
	nComponents, _ := components.Dims()
	m, err := New(nComponents, opts...)
	if err != nil {
		return nil, err
	}
	m.components = mat.DenseCopyOf(components)
	return m, nil
}

// Fit learns the dictionary from data (nSamples × nFeatures) and returns the
// receiver. data is not modified. Dimension errors are reported before any
// decomposition is attempted.
func (m *Model) Fit(data mat.Matrix) (*Model, error) {
	if err := common.VerifyData(data); err != nil {
		return nil, err
	}
	nSamples, nFeatures := data.Dims()
	if err := checkComponents(m.nComponents, nSamples, nFeatures); err != nil {
		return nil, err
	}

	t := &Trainer{
		NumComponents: m.nComponents,
		NonzeroCoefs:  m.nonzeroCoefs,
		MaxIter:       m.maxIter,
		Tol:           m.tol,
		Backend:       m.backend,
		Logger:        m.logger,
	}
	dict, report, err := t.Train(data)
	if err != nil {
		return nil, err
	}
	m.components = dict
	m.report = report
	return m, nil
}

// FitTransform fits the model and returns the codes of data under the
// learned dictionary.
func (m *Model) FitTransform(data mat.Matrix) (*mat.Dense, error) {
	if _, err := m.Fit(data); err != nil {
		return nil, err
	}
	return m.Transform(data)
}

// Transform returns the nSamples × nComponents sparse codes of data. Each row
// has at most NonzeroCoefs nonzero entries.
func (m *Model) Transform(data mat.Matrix) (*mat.Dense, error) {
	if err := m.checkData(data); err != nil {
		return nil, err
	}
	return sparseCode(m.backend, m.components, data, m.nonzeroCoefs)
}

// InverseTransform returns codes·D, the reconstruction of the samples whose
// codes are given.
func (m *Model) InverseTransform(codes mat.Matrix) (*mat.Dense, error) {
	if m.components == nil {
		return nil, common.ErrNotFitted
	}
	nSamples, nCodes := codes.Dims()
	if nCodes != m.nComponents {
		return nil, &common.FeatureMismatch{Want: m.nComponents, Got: nCodes}
	}
	rec := mat.NewDense(nSamples, m.NumFeatures(), nil)
	rec.Mul(codes, m.components)
	return rec, nil
}

// ReconstructionError returns ‖X − Transform(X)·D‖_F.
func (m *Model) ReconstructionError(data mat.Matrix) (float64, error) {
	codes, err := m.Transform(data)
	if err != nil {
		return 0, err
	}
	return reconstructionError(data, codes, m.components), nil
}

// Score returns the mean over samples of l.Loss(reconstruction, sample).
func (m *Model) Score(data mat.Matrix, l loss.Losser) (float64, error) {
	codes, err := m.Transform(data)
	if err != nil {
		return 0, err
	}
	rec, err := m.InverseTransform(codes)
	if err != nil {
		return 0, err
	}
	nSamples, nFeatures := data.Dims()
	sample := make([]float64, nFeatures)
	var total float64
	for i := 0; i < nSamples; i++ {
		mat.Row(sample, i, data)
		total += l.Loss(rec.RawRowView(i), sample)
	}
	return total / float64(nSamples), nil
}

func (m *Model) checkData(data mat.Matrix) error {
	if m.components == nil {
		return common.ErrNotFitted
	}
	if err := common.VerifyData(data); err != nil {
		return err
	}
	if _, nFeatures := data.Dims(); nFeatures != m.NumFeatures() {
		return &common.FeatureMismatch{Want: m.NumFeatures(), Got: nFeatures}
	}
	return nil
}

// Components returns a copy of the nComponents × nFeatures dictionary, or
// nil if the model is not fitted.
func (m *Model) Components() *mat.Dense {
	if m.components == nil {
		return nil
	}
	return mat.DenseCopyOf(m.components)
}

// NumComponents returns the number of atoms.
func (m *Model) NumComponents() int {
	return m.nComponents
}

// NumFeatures returns the length of an atom, or 0 before fitting.
func (m *Model) NumFeatures() int {
	if m.components == nil {
		return 0
	}
	_, c := m.components.Dims()
	return c
}

// NonzeroCoefs returns the sparsity budget per sample.
func (m *Model) NonzeroCoefs() int {
	return m.nonzeroCoefs
}

// Report returns the record of the last Fit, or nil.
func (m *Model) Report() *Report {
	return m.report
}

type modelMarshal struct {
	NumComponents int
	NonzeroCoefs  int
	MaxIter       int
	Tol           float64
	NumFeatures   int
	Components    []float64 // row major
}

// MarshalJSON encodes the hyperparameters and the dictionary. The backend
// and logger are not persisted.
func (m *Model) MarshalJSON() ([]byte, error) {
	v := modelMarshal{
		NumComponents: m.nComponents,
		NonzeroCoefs:  m.nonzeroCoefs,
		MaxIter:       m.maxIter,
		Tol:           m.tol,
		NumFeatures:   m.NumFeatures(),
	}
	if m.components != nil {
		v.Components = mat.DenseCopyOf(m.components).RawMatrix().Data
	}
	return json.Marshal(v)
}

// UnmarshalJSON decodes a model written by MarshalJSON. The decoded model
// uses the gonum backend and a no-op logger.
func (m *Model) UnmarshalJSON(data []byte) error {
	var v modelMarshal
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	decoded, err := New(v.NumComponents,
		WithNonzeroCoefs(v.NonzeroCoefs),
		WithMaxIter(v.MaxIter),
		WithTol(v.Tol),
	)
	if err != nil {
		return err
	}
	if v.Components != nil {
		if len(v.Components) != v.NumComponents*v.NumFeatures || v.NumFeatures < 1 {
			return fmt.Errorf("%w: %d dictionary entries for %d×%d", common.ErrDimension, len(v.Components), v.NumComponents, v.NumFeatures)
		}
		decoded.components = mat.NewDense(v.NumComponents, v.NumFeatures, v.Components)
	}
	*m = *decoded
	return nil
}

// SetLogger replaces the training logger, for models obtained by decoding.
func (m *Model) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	m.logger = l
	m.shareLogger()
}

// SetBackend replaces the numeric backend, for models obtained by decoding.
func (m *Model) SetBackend(b linalg.Backend) {
	if b != nil {
		m.backend = b
	}
}
