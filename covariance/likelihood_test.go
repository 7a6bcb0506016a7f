package covariance

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/scicov/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestLogDet(t *testing.T) {
	tests := []struct {
		name string
		a    *mat.SymDense
		want float64
	}{
		{"identity", mat.NewSymDense(3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}), 0},
		{"diagonal", mat.NewSymDense(2, []float64{2, 0, 0, 3}), math.Log(6)},
		{"dense", mat.NewSymDense(2, []float64{2, 1, 1, 2}), math.Log(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LogDet(tt.a)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tol)
		})
	}
}

func TestLogDetSingularIsFinite(t *testing.T) {
	a := mat.NewSymDense(2, []float64{1, 1, 1, 1})
	got, err := LogDet(a)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(got))
	assert.False(t, math.IsInf(got, 0))
	// the zero eigenvalue is clamped to 2 * 2 * Eps
	assert.InDelta(t, math.Log(2)+math.Log(4*2.220446049250313e-16), got, 1e-6)
}

func TestLogLikelihood(t *testing.T) {
	eye := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	got, err := LogLikelihood(eye, eye)
	require.NoError(t, err)
	assert.InDelta(t, (-2-2*math.Log(2*math.Pi))/2, got, tol)

	emp := mat.NewDense(2, 2, []float64{2, 0.5, 0.5, 1})
	prec := mat.NewSymDense(2, []float64{2, 0, 0, 3})
	got, err = LogLikelihood(emp, prec)
	require.NoError(t, err)
	assert.InDelta(t, (-(4+3)+math.Log(6)-2*math.Log(2*math.Pi))/2, got, tol)
}

func TestLogLikelihoodShapes(t *testing.T) {
	_, err := LogLikelihood(mat.NewDense(3, 3, nil), mat.NewDense(2, 3, nil))
	var me *errors.ModelError
	require.True(t, errors.As(err, &me))
	assert.True(t, errors.Is(err, errors.ErrNotSquare))

	_, err = LogLikelihood(mat.NewDense(3, 3, nil), mat.NewSymDense(2, nil))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}
