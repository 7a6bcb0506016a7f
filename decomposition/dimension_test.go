package decomposition

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/scicov/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dominant has one large eigenvalue and four small, distinct ones.
var dominant = []float64{10, 0.12, 0.11, 0.10, 0.09}

func TestAssessDimension(t *testing.T) {
	tests := []struct {
		name string
		rank int
		want float64
	}{
		{"rank 0", 0, -182.6533424395754},
		{"rank 1", 1, 317.2896111135591},
		{"rank 2", 2, 314.6535912416271},
		{"full rank", 5, 308.1305291547207},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AssessDimension(dominant, tt.rank, 100, 5)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAssessDimensionInvalidRank(t *testing.T) {
	for _, rank := range []int{-1, 6} {
		_, err := AssessDimension(dominant, rank, 100, 5)
		var re *errors.RankError
		require.True(t, errors.As(err, &re), "rank %d", rank)
		assert.Equal(t, rank, re.Rank)
		assert.Equal(t, 5, re.Max)
	}
}

func TestAssessDimensionInvalidShape(t *testing.T) {
	_, err := AssessDimension(dominant, 1, 0, 5)
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))

	_, err = AssessDimension(dominant, 1, 100, 4)
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestInferDimension(t *testing.T) {
	tests := []struct {
		name     string
		spectrum []float64
		nSamples int
		want     int
	}{
		{"one dominant eigenvalue", dominant, 100, 1},
		{"two dominant eigenvalues", []float64{5.0, 4.0, 0.2, 0.19, 0.18, 0.17}, 500, 2},
		{"no structure", []float64{3.0, 2.0}, 50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rank, scores, err := InferDimension(tt.spectrum, tt.nSamples, len(tt.spectrum))
			require.NoError(t, err)
			assert.Equal(t, tt.want, rank)
			assert.Len(t, scores, len(tt.spectrum)+1)
			for r, s := range scores {
				assert.LessOrEqual(t, s, scores[rank], "rank %d", r)
			}
		})
	}
}

func TestInferDimensionTruncatedSpectrum(t *testing.T) {
	// only the leading eigenvalues of a 5-feature problem; the full rank
	// is not a candidate
	spectrum := dominant[:3]
	rank, scores, err := InferDimension(spectrum, 100, 5)
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.Equal(t, 2, rank)
	assert.InDelta(t, 474.02630867351735, scores[2], 1e-9)
	for _, s := range scores {
		assert.False(t, math.IsInf(s, 0))
	}
}

func TestInferDimensionSkipsNaN(t *testing.T) {
	// a negative eigenvalue makes ranks 2 and 3 NaN
	rank, scores, err := InferDimension([]float64{4, 1, -0.5}, 10, 3)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(scores[2]))
	assert.True(t, math.IsNaN(scores[3]))
	assert.Less(t, rank, 2)
}

func TestInferDimensionAllNaN(t *testing.T) {
	_, _, err := InferDimension([]float64{2, -1, -1.5}, 10, 3)
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))
}

func TestInferDimensionEmpty(t *testing.T) {
	_, _, err := InferDimension(nil, 10, 3)
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))
}
