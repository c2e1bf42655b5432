package ksvd

import (
	"gonum.org/v1/gonum/mat"

	"github.com/reggo/ksvd/common"
	"github.com/reggo/ksvd/linalg"
)

// sparseCode computes the nSamples × nAtoms codes of data against dict. Atom
// selection and coefficients are entirely the backend's; this only builds
// Gram = D·Dᵗ and the correlations D·Xᵗ and transposes the result.
func sparseCode(backend linalg.Backend, dict *mat.Dense, data mat.Matrix, nNonzero int) (*mat.Dense, error) {
	nAtoms, nFeatures := dict.Dims()
	nSamples, dataFeatures := data.Dims()
	if dataFeatures != nFeatures {
		return nil, &common.FeatureMismatch{Want: nFeatures, Got: dataFeatures}
	}

	gram := mat.NewSymDense(nAtoms, nil)
	gram.SymOuterK(1, dict)

	xy := mat.NewDense(nAtoms, nSamples, nil)
	xy.Mul(dict, data.T())

	codes, err := backend.SparseCode(gram, xy, nNonzero)
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(codes.T()), nil
}

// reconstructionError returns ‖X − ΓD‖_F.
func reconstructionError(data mat.Matrix, codes, dict *mat.Dense) float64 {
	var residual mat.Dense
	residual.Mul(codes, dict)
	residual.Sub(data, &residual)
	return mat.Norm(&residual, 2)
}
