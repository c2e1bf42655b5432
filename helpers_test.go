package ksvd

import (
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/reggo/ksvd/linalg"
)

// spyBackend counts calls into the gonum backend and keeps the last
// sparse coding inputs.
type spyBackend struct {
	linalg.Gonum

	mu       sync.Mutex
	svdCalls int
	ompCalls int
	gram     *mat.SymDense
	xy       *mat.Dense
}

func (s *spyBackend) TruncatedSVD(m mat.Matrix, k int) (*mat.Dense, []float64, *mat.Dense, error) {
	s.mu.Lock()
	s.svdCalls++
	s.mu.Unlock()
	return s.Gonum.TruncatedSVD(m, k)
}

func (s *spyBackend) SparseCode(gram mat.Symmetric, xy mat.Matrix, nNonzero int) (*mat.Dense, error) {
	s.mu.Lock()
	s.ompCalls++
	s.gram = mat.NewSymDense(gram.SymmetricDim(), nil)
	s.gram.CopySym(gram)
	s.xy = mat.DenseCopyOf(xy)
	s.mu.Unlock()
	return s.Gonum.SparseCode(gram, xy, nNonzero)
}

func randomDense(rnd *rand.Rand, r, c int) *mat.Dense {
	m := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, rnd.NormFloat64())
		}
	}
	return m
}

// lowRankData returns codes·atoms plus gaussian noise of the given size,
// where atoms has unit rows.
func lowRankData(rnd *rand.Rand, nSamples, nFeatures, rank int, noise float64) *mat.Dense {
	atoms := randomDense(rnd, rank, nFeatures)
	for i := 0; i < rank; i++ {
		row := atoms.RawRowView(i)
		floats.Scale(1/floats.Norm(row, 2), row)
	}
	codes := randomDense(rnd, nSamples, rank)
	data := mat.NewDense(nSamples, nFeatures, nil)
	data.Mul(codes, atoms)
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nFeatures; j++ {
			data.Set(i, j, data.At(i, j)+noise*rnd.NormFloat64())
		}
	}
	return data
}

func nonzeroPerRow(m *mat.Dense) []int {
	r, _ := m.Dims()
	counts := make([]int, r)
	for i := range counts {
		for _, v := range m.RawRowView(i) {
			if v != 0 {
				counts[i]++
			}
		}
	}
	return counts
}
