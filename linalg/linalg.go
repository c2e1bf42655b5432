// Package linalg holds the numeric primitives the dictionary learner treats
// as black boxes: a truncated singular value decomposition and a sparse
// coder working on the Gram representation of a dictionary.
//
// Backend is the seam for alternative BLAS/LAPACK-backed implementations.
// Gonum is the default, built on gonum.org/v1/gonum/mat.
package linalg

import "gonum.org/v1/gonum/mat"

// Backend supplies the two external primitives used during training.
// Implementations must be safe for concurrent use; a fitted model calls
// SparseCode from every Transform.
type Backend interface {
	// TruncatedSVD returns the k largest singular triplets of m:
	// u is r×k, s has length k, vt is k×c.
	TruncatedSVD(m mat.Matrix, k int) (u *mat.Dense, s []float64, vt *mat.Dense, err error)

	// SparseCode solves, for each column of xy (nAtoms×nSamples), a greedy
	// least-squares problem over the Gram matrix gram (nAtoms×nAtoms) using at
	// most nNonzero atoms. The result is nAtoms×nSamples.
	SparseCode(gram mat.Symmetric, xy mat.Matrix, nNonzero int) (*mat.Dense, error)
}
