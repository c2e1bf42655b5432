package linalg

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/reggo/ksvd/common"
)

// eps is the float64 machine epsilon. Selections whose squared correlation
// falls below it are treated as linearly dependent.
const eps = 0x1p-52

// Bounds on the number of samples coded per goroutine.
const (
	minGrain = 16
	maxGrain = 1000
)

// Gonum implements Backend with gonum/mat. The zero value is ready to use.
type Gonum struct {
	// Logger receives a debug entry when a sample's pursuit stops before
	// reaching the sparsity budget. Nil disables logging.
	Logger *zap.Logger
	// Parallel codes chunks of samples on separate goroutines. The codes
	// are identical either way.
	Parallel bool
}

// SparseCode runs orthogonal matching pursuit on every column of xy using
// only the Gram matrix. The support grows one atom at a time and the
// coefficients are re-solved through an incrementally extended Cholesky
// factor of the active Gram block.
func (g Gonum) SparseCode(gram mat.Symmetric, xy mat.Matrix, nNonzero int) (*mat.Dense, error) {
	nAtoms := gram.SymmetricDim()
	r, nSamples := xy.Dims()
	if r != nAtoms {
		return nil, errors.Wrapf(common.ErrDimension, "linalg: gram is %d×%d but correlations have %d rows", nAtoms, nAtoms, r)
	}
	if nNonzero < 1 || nNonzero > nAtoms {
		return nil, errors.Wrapf(common.ErrHyperparameter, "linalg: sparsity %d outside [1, %d]", nNonzero, nAtoms)
	}

	// Samples are independent; each chunk writes only its own columns.
	codes := mat.NewDense(nAtoms, nSamples, nil)
	code := func(start, end int) {
		col := make([]float64, nAtoms)
		for i := start; i < end; i++ {
			mat.Col(col, i, xy)
			support, coef, early := ompGram(gram, col, nNonzero)
			for t, atom := range support {
				codes.Set(atom, i, coef[t])
			}
			if early && g.Logger != nil {
				g.Logger.Debug("orthogonal matching pursuit ended prematurely",
					zap.Int("sample", i),
					zap.Int("selected", len(support)),
					zap.Int("budget", nNonzero),
				)
			}
		}
	}
	if g.Parallel {
		common.ParallelFor(nSamples, common.GetGrainSize(nSamples, minGrain, maxGrain), code)
	} else {
		code(0, nSamples)
	}
	return codes, nil
}

// ompGram selects at most nNonzero atoms for a single target given its
// correlations xy with every atom. It returns the selected atoms in order of
// selection, their least-squares coefficients, and whether it stopped before
// spending the budget.
func ompGram(gram mat.Symmetric, xy []float64, nNonzero int) (support []int, coef []float64, early bool) {
	nAtoms := len(xy)
	alpha := make([]float64, nAtoms)
	copy(alpha, xy)
	active := make([]bool, nAtoms)

	var chol *mat.Cholesky
	for len(support) < nNonzero {
		lam := 0
		for a := 1; a < nAtoms; a++ {
			if math.Abs(alpha[a]) > math.Abs(alpha[lam]) {
				lam = a
			}
		}
		if active[lam] || alpha[lam]*alpha[lam] < eps {
			return support, coef, true
		}

		next := &mat.Cholesky{}
		if chol == nil {
			if !next.Factorize(mat.NewSymDense(1, []float64{gram.At(lam, lam)})) {
				return support, coef, true
			}
		} else {
			n := len(support)
			v := make([]float64, n+1)
			for t, a := range support {
				v[t] = gram.At(a, lam)
			}
			v[n] = gram.At(lam, lam)
			if !next.ExtendVecSym(chol, mat.NewVecDense(n+1, v)) {
				return support, coef, true
			}
		}
		chol = next
		support = append(support, lam)
		active[lam] = true

		b := make([]float64, len(support))
		for t, a := range support {
			b[t] = xy[a]
		}
		var sol mat.VecDense
		if err := chol.SolveVecTo(&sol, mat.NewVecDense(len(b), b)); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) {
				// Not reachable with a successfully built factor; keep the previous support.
				support = support[:len(support)-1]
				return support, coef, true
			}
		}
		coef = make([]float64, len(support))
		for t := range coef {
			coef[t] = sol.AtVec(t)
		}

		for a := 0; a < nAtoms; a++ {
			var s float64
			for t, sa := range support {
				s += gram.At(a, sa) * coef[t]
			}
			alpha[a] = xy[a] - s
		}
	}
	return support, coef, false
}
