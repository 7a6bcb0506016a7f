package covariance

import (
	"math"

	"github.com/YuminosukeSato/scicov/linalg"
	"github.com/YuminosukeSato/scicov/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LogLikelihood returns the sample mean of the Gaussian log-likelihood of data
// whose maximum-likelihood covariance is empCov, under the model with the
// given precision matrix:
//
//	(-Σ empCov⊙precision + logdet(precision) - p·ln(2π)) / 2
//
// The normalisation terms are included so values compare across libraries.
func LogLikelihood(empCov, precision mat.Matrix) (_ float64, err error) {
	defer errors.Recover(&err, "covariance.LogLikelihood")

	p, pc := precision.Dims()
	if p != pc {
		return 0, errors.NewModelError("covariance.LogLikelihood", "precision", errors.ErrNotSquare)
	}
	if r, c := empCov.Dims(); r != p || c != p {
		if r != p {
			return 0, errors.NewDimensionError("covariance.LogLikelihood", p, r, 0)
		}
		return 0, errors.NewDimensionError("covariance.LogLikelihood", p, c, 1)
	}

	sum := 0.0
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			sum += empCov.At(i, j) * precision.At(i, j)
		}
	}
	logdet, err := LogDet(symmetric(precision))
	if err != nil {
		return 0, err
	}

	ll := -sum + logdet
	ll -= float64(p) * math.Log(2*math.Pi)
	return ll / 2, nil
}

// LogDet returns the log-determinant of the positive semi-definite matrix a.
//
// Eigenvalues at or below max(λ)·n·Eps, which for a PSD matrix are rounding
// noise or exact zeros, are raised to that tolerance before taking logs, so
// near-singular input yields a large negative value instead of NaN.
func LogDet(a mat.Symmetric) (float64, error) {
	vals, err := linalg.Eigvalsh(a)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, nil
	}
	tol := vals[len(vals)-1] * float64(len(vals)) * linalg.Eps
	sum := 0.0
	for _, v := range vals {
		if v <= tol {
			v = tol
		}
		sum += math.Log(v)
	}
	return sum, nil
}

// symmetric returns m itself when it already is a mat.Symmetric, otherwise
// its symmetric part (m + mᵀ)/2.
func symmetric(m mat.Matrix) mat.Symmetric {
	if s, ok := m.(mat.Symmetric); ok {
		return s
	}
	n, _ := m.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2)
		}
	}
	return s
}
