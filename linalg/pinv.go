package linalg

import (
	"math"

	"github.com/YuminosukeSato/scicov/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DefaultRtol selects the size-dependent default cutoff in Pinv and Pinvh.
// Any negative rtol does the same; rtol = 0 keeps every non-zero value.
const DefaultRtol = -1.0

// Pinvh returns the pseudo-inverse of the symmetric matrix a.
//
// Eigenvalues with |λ| <= rtol·max|λ| are treated as zero and dropped; the
// remaining ones are inverted and the result is rebuilt from the retained
// eigenvectors only. A negative rtol (DefaultRtol) selects n·Eps. Near-singular
// input is never an error; only a failed eigendecomposition is.
func Pinvh(a mat.Symmetric, rtol float64) (_ *mat.SymDense, err error) {
	defer errors.Recover(&err, "linalg.Pinvh")

	n := a.SymmetricDim()
	if n == 0 {
		return nil, errors.NewModelError("linalg.Pinvh", "empty matrix", errors.ErrEmptyData)
	}
	vals, vecs, err := Eigh(a)
	if err != nil {
		return nil, err
	}
	if rtol < 0 {
		rtol = float64(n) * Eps
	}

	maxAbs := 0.0
	for _, l := range vals {
		maxAbs = math.Max(maxAbs, math.Abs(l))
	}
	cutoff := maxAbs * rtol

	out := mat.NewSymDense(n, nil)
	for k, l := range vals {
		if math.Abs(l) <= cutoff {
			continue
		}
		out.SymRankOne(out, 1/l, vecs.ColView(k))
	}
	return out, nil
}

// Pinv returns the Moore-Penrose pseudo-inverse of the m×n matrix a as an n×m
// matrix, computed from SafeSVD. Singular values s <= rtol·max(s) are dropped;
// A negative rtol (DefaultRtol) selects max(m, n)·Eps.
func Pinv(a mat.Matrix, rtol float64) (_ *mat.Dense, err error) {
	defer errors.Recover(&err, "linalg.Pinv")

	m, n := a.Dims()
	svd, err := SafeSVD(a)
	if err != nil {
		return nil, err
	}
	if rtol < 0 {
		rtol = float64(max(m, n)) * Eps
	}

	cutoff := svd.S[0] * rtol
	rank := 0
	for _, s := range svd.S {
		if s > cutoff {
			rank++
		}
	}

	out := mat.NewDense(n, m, nil)
	if rank == 0 {
		return out, nil
	}
	// pinv = V_r diag(1/s_r) U_rᵀ
	ur := mat.DenseCopyOf(svd.U.Slice(0, m, 0, rank))
	for j := 0; j < rank; j++ {
		col := ur.ColView(j).(*mat.VecDense)
		col.ScaleVec(1/svd.S[j], col)
	}
	out.Mul(svd.V.Slice(0, n, 0, rank), ur.T())
	return out, nil
}

// Eigh returns the eigenvalues of a in ascending order and the matching
// eigenvectors as columns.
func Eigh(a mat.Symmetric) ([]float64, *mat.Dense, error) {
	var eig mat.EigenSym
	if !eig.Factorize(a, true) {
		return nil, nil, errors.NewLinAlgError("linalg.Eigh", "eigendecomposition did not converge")
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	return eig.Values(nil), &vecs, nil
}

// Eigvalsh returns the eigenvalues of a in ascending order.
func Eigvalsh(a mat.Symmetric) ([]float64, error) {
	var eig mat.EigenSym
	if !eig.Factorize(a, false) {
		return nil, errors.NewLinAlgError("linalg.Eigvalsh", "eigendecomposition did not converge")
	}
	return eig.Values(nil), nil
}
