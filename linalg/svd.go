package linalg

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/reggo/ksvd/common"
)

// TruncatedSVD factorizes m with a thin SVD and keeps the k largest
// singular values. Values are returned in decreasing order. Signs of the
// singular vectors are whatever LAPACK produces and are not normalized.
func (g Gonum) TruncatedSVD(m mat.Matrix, k int) (u *mat.Dense, s []float64, vt *mat.Dense, err error) {
	r, c := m.Dims()
	if k < 1 || k > min(r, c) {
		return nil, nil, nil, errors.Wrapf(common.ErrDimension, "linalg: cannot keep %d singular values of a %d×%d matrix", k, r, c)
	}

	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDThin); !ok {
		return nil, nil, nil, errors.New("linalg: SVD factorization failed")
	}

	s = svd.Values(nil)[:k]

	var uFull, vFull mat.Dense
	svd.UTo(&uFull)
	svd.VTo(&vFull)

	u = mat.DenseCopyOf(uFull.Slice(0, r, 0, k))
	vt = mat.DenseCopyOf(vFull.Slice(0, c, 0, k).T())
	return u, s, vt, nil
}
