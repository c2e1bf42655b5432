package ksvd

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/reggo/ksvd/common"
	"github.com/reggo/ksvd/linalg"
)

// checkComponents returns a *common.DimensionMismatch unless
// nComponents < min(nSamples, nFeatures).
func checkComponents(nComponents, nSamples, nFeatures int) error {
	if nComponents >= min(nSamples, nFeatures) {
		return &common.DimensionMismatch{
			Components: nComponents,
			Samples:    nSamples,
			Features:   nFeatures,
		}
	}
	return nil
}

// initialize returns diag(S)·Vᵗ for the nComponents largest singular
// triplets of data.
func initialize(backend linalg.Backend, data mat.Matrix, nComponents int) (*mat.Dense, error) {
	nSamples, nFeatures := data.Dims()
	if err := checkComponents(nComponents, nSamples, nFeatures); err != nil {
		return nil, err
	}
	_, s, vt, err := backend.TruncatedSVD(data, nComponents)
	if err != nil {
		return nil, err
	}
	dict := mat.NewDense(nComponents, nFeatures, nil)
	dict.Mul(mat.NewDiagDense(nComponents, s), vt)
	return dict, nil
}

// normalizeRows rescales every atom of dict to unit L2 norm in place.
func normalizeRows(dict *mat.Dense, stage string) error {
	nAtoms, _ := dict.Dims()
	for j := 0; j < nAtoms; j++ {
		if err := normalizeAtom(dict.RawRowView(j), j, stage); err != nil {
			return err
		}
	}
	return nil
}

func normalizeAtom(atom []float64, j int, stage string) error {
	norm := floats.Norm(atom, 2)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return &common.DegenerateAtom{Atom: j, Stage: stage}
	}
	floats.Scale(1/norm, atom)
	return nil
}
