// Package ksvd learns sparse-coding dictionaries with the Approximate K-SVD
// algorithm.
//
// Given samples X (nSamples × nFeatures) a Model finds a dictionary D
// (nComponents × nFeatures) and codes Γ (nSamples × nComponents) with at most
// NonzeroCoefs nonzero entries per row such that ‖X − ΓD‖ is small. Training
// starts from a truncated SVD of X, then alternates orthogonal matching
// pursuit with a single-pass rank-1 update of every atom.
//
// The numeric primitives (truncated SVD, Gram-based matching pursuit) live
// behind linalg.Backend. Fitting is single threaded; Transform on a fitted
// Model only reads the dictionary and may be called concurrently.
//
// Reproducibility: singular vector signs, and the order of atoms whose
// singular values tie, are chosen by the SVD solver. Dictionaries learned
// with different backends can therefore differ by row signs and order.
package ksvd

import "gonum.org/v1/gonum/mat"

// A Coder computes sparse codes against a fixed dictionary. Model and
// Pipeline are Coders.
type Coder interface {
	// Transform returns the nSamples × NumComponents() codes of data.
	Transform(data mat.Matrix) (*mat.Dense, error)
	NumComponents() int
	NumFeatures() int
}

var (
	_ Coder = (*Model)(nil)
	_ Coder = (*Pipeline)(nil)
)
