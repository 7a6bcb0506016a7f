package decomposition

import (
	"sort"

	"github.com/YuminosukeSato/scicov/linalg"
	"github.com/YuminosukeSato/scicov/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// SpectrumFromCovariance returns the eigenvalues of cov in descending order.
// Small negative eigenvalues produced by rounding are clipped to zero.
func SpectrumFromCovariance(cov mat.Symmetric) ([]float64, error) {
	vals, err := linalg.Eigvalsh(cov)
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(vals)))
	for i, v := range vals {
		if v < 0 {
			vals[i] = 0
		}
	}
	return vals, nil
}

// PrincipalAxes は中心化したデータの特異値分解から得た主軸
type PrincipalAxes struct {
	// Mean is the column mean subtracted before the decomposition.
	Mean []float64
	// Components holds one unit principal axis per row, ordered by
	// decreasing variance.
	Components *mat.Dense
	// Spectrum holds the variance along each axis, s²/n_samples, so it
	// matches SpectrumFromCovariance of the maximum-likelihood covariance.
	Spectrum []float64
}

// FitPrincipalAxes centers X and decomposes it with linalg.SafeSVD. Signs are
// fixed with linalg.SVDFlip so repeated calls give identical axes.
func FitPrincipalAxes(X mat.Matrix) (*PrincipalAxes, error) {
	const op = "decomposition.FitPrincipalAxes"
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if err := errors.CheckMatrix(op, X); err != nil {
		return nil, err
	}

	mean := make([]float64, p)
	col := make([]float64, n)
	centered := mat.NewDense(n, p, nil)
	for j := 0; j < p; j++ {
		mat.Col(col, j, X)
		mean[j] = stat.Mean(col, nil)
		for i := range col {
			col[i] -= mean[j]
		}
		centered.SetCol(j, col)
	}

	svd, err := linalg.SafeSVD(centered)
	if err != nil {
		return nil, err
	}
	linalg.SVDFlip(svd.U, svd.V, true)

	spectrum := make([]float64, len(svd.S))
	for i, s := range svd.S {
		spectrum[i] = s * s / float64(n)
	}
	components := mat.DenseCopyOf(svd.V.T())

	return &PrincipalAxes{Mean: mean, Components: components, Spectrum: spectrum}, nil
}

// ExplainedVarianceRatio returns the fraction of the total variance carried
// by each eigenvalue and its running total. The running total is computed
// with linalg.StableCumsum.
func ExplainedVarianceRatio(spectrum []float64) (ratio, cumulative []float64, err error) {
	const op = "decomposition.ExplainedVarianceRatio"
	if len(spectrum) == 0 {
		return nil, nil, errors.NewValueError(op, "spectrum must not be empty")
	}
	total := 0.0
	for _, s := range spectrum {
		if s < 0 {
			return nil, nil, errors.NewValueError(op, "eigenvalues must be non-negative")
		}
		total += s
	}
	if total == 0 {
		return nil, nil, errors.NewValueError(op, "total variance is zero")
	}

	ratio = make([]float64, len(spectrum))
	for i, s := range spectrum {
		ratio[i] = s / total
	}
	cumulative = linalg.StableCumsum(ratio, linalg.DefaultCumsumRtol, linalg.DefaultCumsumAtol)
	return ratio, cumulative, nil
}

// ComponentsForVariance returns the smallest number of leading eigenvalues
// whose cumulative explained variance ratio reaches threshold (0, 1].
func ComponentsForVariance(spectrum []float64, threshold float64) (int, error) {
	if threshold <= 0 || threshold > 1 {
		return 0, errors.NewValidationError("threshold", "must be in (0, 1]", threshold)
	}
	_, cumulative, err := ExplainedVarianceRatio(spectrum)
	if err != nil {
		return 0, err
	}
	// 丸め誤差で最後の累積値が1をわずかに下回ることがある
	k := sort.SearchFloat64s(cumulative, threshold-1e-12)
	if k >= len(cumulative) {
		k = len(cumulative) - 1
	}
	return k + 1, nil
}
