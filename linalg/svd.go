// Package linalg provides the small linear-algebra kernels the estimators build
// on: pseudo-inverses that truncate numerically-zero spectra instead of failing,
// an SVD that falls back to a second algorithm when LAPACK does not converge,
// and a few array helpers (stable cumulative sums, weighted bin counts, medians).
//
// All routines are real-valued; conjugate transposes reduce to transposes.
package linalg

import (
	"math"

	"github.com/YuminosukeSato/scicov/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Eps is the float64 machine epsilon.
const Eps = 2.220446049250313e-16

// SVD is a thin singular value decomposition A = U diag(S) Vᵀ.
// For an m×n matrix and k = min(m, n), U is m×k, V is n×k and S holds the k
// singular values in descending order.
type SVD struct {
	U *mat.Dense
	S []float64
	V *mat.Dense
}

// factorizeSVD is the primary decomposition. It is a variable so tests can
// force the fallback path.
var factorizeSVD = func(a mat.Matrix) (*SVD, bool) {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, false
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	return &SVD{U: &u, S: svd.Values(nil), V: &v}, true
}

// SafeSVD computes the thin SVD of a. When the LAPACK driver does not converge
// a ConvergenceWarning is emitted through errors.Warn and the decomposition is
// retried via the eigendecomposition of the Gram matrix. A LinAlgError is
// returned only when the fallback fails as well.
func SafeSVD(a mat.Matrix) (_ *SVD, err error) {
	defer errors.Recover(&err, "linalg.SafeSVD")

	m, n := a.Dims()
	if m == 0 || n == 0 {
		return nil, errors.NewModelError("linalg.SafeSVD", "empty matrix", errors.ErrEmptyData)
	}
	if res, ok := factorizeSVD(a); ok {
		return res, nil
	}

	errors.Warn(errors.NewConvergenceWarning("gesvd", "gram eigendecomposition", "SVD factorization failed"))
	res, ok := gramSVD(a)
	if !ok {
		return nil, errors.NewLinAlgError("linalg.SafeSVD", "SVD did not converge, even with the gram eigendecomposition fallback")
	}
	return res, nil
}

// gramSVD derives the SVD from the eigendecomposition of AᵀA (or AAᵀ when A is
// wide). Left vectors of zero singular values are completed to an orthonormal
// basis by Gram-Schmidt.
func gramSVD(a mat.Matrix) (*SVD, bool) {
	m, n := a.Dims()
	if m < n {
		res, ok := gramSVD(a.T())
		if !ok {
			return nil, false
		}
		return &SVD{U: res.V, S: res.S, V: res.U}, true
	}

	var gram mat.SymDense
	gram.SymOuterK(1, a.T())

	var eig mat.EigenSym
	if !eig.Factorize(&gram, true) {
		return nil, false
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// EigenSym returns ascending eigenvalues. Eigenvalues of the Gram matrix
	// within rounding noise of zero give zero singular values.
	cutoff := float64(m) * Eps * vals[n-1]
	s := make([]float64, n)
	v := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		src := n - 1 - j
		if vals[src] > cutoff {
			s[j] = math.Sqrt(vals[src])
		}
		v.SetCol(j, mat.Col(nil, src, &vecs))
	}

	u := mat.NewDense(m, n, nil)
	filled := make([]bool, n)
	col := make([]float64, m)
	var av mat.VecDense
	for j := 0; j < n; j++ {
		if s[j] == 0 {
			continue
		}
		av.MulVec(a, v.ColView(j))
		for i := range col {
			col[i] = av.AtVec(i) / s[j]
		}
		u.SetCol(j, col)
		filled[j] = true
	}
	completeBasis(u, filled)
	return &SVD{U: u, S: s, V: v}, true
}

// completeBasis fills the columns of u not marked in filled with unit vectors
// orthogonal to every filled column.
func completeBasis(u *mat.Dense, filled []bool) {
	m, _ := u.Dims()
	for j, ok := range filled {
		if ok {
			continue
		}
		var best []float64
		bestNorm := -1.0
		for i := 0; i < m; i++ {
			cand := make([]float64, m)
			cand[i] = 1
			orthogonalize(cand, u, filled)
			if nrm := floats.Norm(cand, 2); nrm > bestNorm {
				best, bestNorm = cand, nrm
			}
		}
		floats.Scale(1/bestNorm, best)
		u.SetCol(j, best)
		filled[j] = true
	}
}

func orthogonalize(x []float64, u *mat.Dense, filled []bool) {
	// two passes of classical Gram-Schmidt
	for pass := 0; pass < 2; pass++ {
		for c, ok := range filled {
			if !ok {
				continue
			}
			col := mat.Col(nil, c, u)
			floats.AddScaled(x, -floats.Dot(x, col), col)
		}
	}
}

// SVDFlip makes the signs of singular vectors deterministic. Column j of u
// and column j of v are negated together so that, when uBased is true, the
// largest-magnitude entry of u's column is positive; otherwise v's column
// decides. Columns whose deciding entry is zero are left unchanged.
func SVDFlip(u, v *mat.Dense, uBased bool) {
	_, k := u.Dims()
	ref := v
	if uBased {
		ref = u
	}
	rows, _ := ref.Dims()
	for j := 0; j < k; j++ {
		best := 0.0
		for i := 0; i < rows; i++ {
			if x := ref.At(i, j); math.Abs(x) > math.Abs(best) {
				best = x
			}
		}
		if best >= 0 {
			continue
		}
		negateCol(u, j)
		negateCol(v, j)
	}
}

func negateCol(d *mat.Dense, j int) {
	r, _ := d.Dims()
	for i := 0; i < r; i++ {
		d.Set(i, j, -d.At(i, j))
	}
}
