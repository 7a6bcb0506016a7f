package decomposition

import (
	"math/rand/v2"
	"testing"

	"github.com/YuminosukeSato/scicov/covariance"
	"github.com/YuminosukeSato/scicov/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// lowRankData draws samples whose variance is concentrated on one direction.
func lowRankData(t *testing.T, n int) *mat.Dense {
	t.Helper()
	sigma := mat.NewSymDense(4, []float64{
		8.5, 8, 8, 8,
		8, 8.5, 8, 8,
		8, 8, 8.5, 8,
		8, 8, 8, 8.5,
	})
	dist, ok := distmv.NewNormal([]float64{1, 2, 3, 4}, sigma, rand.NewPCG(1, 2))
	require.True(t, ok)
	X := mat.NewDense(n, 4, nil)
	row := make([]float64, 4)
	for i := 0; i < n; i++ {
		X.SetRow(i, dist.Rand(row))
	}
	return X
}

func TestSpectrumFromCovariance(t *testing.T) {
	cov := mat.NewSymDense(3, []float64{
		2, 0, 0,
		0, 5, 0,
		0, 0, 1,
	})
	spectrum, err := SpectrumFromCovariance(cov)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5, 2, 1}, spectrum, 1e-12)

	singular := mat.NewSymDense(2, []float64{1, 1, 1, 1})
	spectrum, err = SpectrumFromCovariance(singular)
	require.NoError(t, err)
	assert.InDelta(t, 2, spectrum[0], 1e-12)
	assert.GreaterOrEqual(t, spectrum[1], 0.0)
}

func TestFitPrincipalAxesMatchesCovarianceSpectrum(t *testing.T) {
	X := lowRankData(t, 400)

	axes, err := FitPrincipalAxes(X)
	require.NoError(t, err)

	est := covariance.NewEmpiricalCovariance()
	require.NoError(t, est.Fit(X))
	cov, err := est.Covariance()
	require.NoError(t, err)
	want, err := SpectrumFromCovariance(cov)
	require.NoError(t, err)

	assert.InDeltaSlice(t, want, axes.Spectrum, 1e-8)
	loc, _ := est.Location()
	assert.InDeltaSlice(t, loc, axes.Mean, 1e-12)

	rank, _, err := InferDimension(axes.Spectrum, 400, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)

	// rows are unit vectors
	r, c := axes.Components.Dims()
	require.Equal(t, 4, r)
	require.Equal(t, 4, c)
	for i := 0; i < r; i++ {
		row := axes.Components.RawRowView(i)
		assert.InDelta(t, 1, mat.Norm(mat.NewVecDense(c, row), 2), 1e-10)
	}
}

func TestFitPrincipalAxesDeterministicSigns(t *testing.T) {
	X := lowRankData(t, 100)
	a, err := FitPrincipalAxes(X)
	require.NoError(t, err)
	b, err := FitPrincipalAxes(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(a.Components, b.Components, 1e-12))
}

func TestFitPrincipalAxesEmpty(t *testing.T) {
	_, err := FitPrincipalAxes(&mat.Dense{})
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestExplainedVarianceRatio(t *testing.T) {
	ratio, cumulative, err := ExplainedVarianceRatio([]float64{6, 3, 1})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.6, 0.3, 0.1}, ratio, 1e-12)
	assert.InDeltaSlice(t, []float64{0.6, 0.9, 1.0}, cumulative, 1e-12)

	_, _, err = ExplainedVarianceRatio([]float64{0, 0})
	assert.Error(t, err)
	_, _, err = ExplainedVarianceRatio([]float64{1, -1})
	assert.Error(t, err)
}

func TestComponentsForVariance(t *testing.T) {
	spectrum := []float64{6, 3, 1}
	tests := []struct {
		threshold float64
		want      int
	}{
		{0.5, 1},
		{0.6, 1},
		{0.61, 2},
		{0.9, 2},
		{0.95, 3},
		{1, 3},
	}
	for _, tt := range tests {
		got, err := ComponentsForVariance(spectrum, tt.threshold)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "threshold %v", tt.threshold)
	}

	_, err := ComponentsForVariance(spectrum, 0)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}
