// Package decomposition selects the effective dimensionality of a dataset
// from the eigenvalue spectrum of its covariance (Minka's Bayesian PCA
// evidence) and derives spectra from data or fitted covariances.
package decomposition

import (
	"math"

	"github.com/YuminosukeSato/scicov/pkg/errors"
	"github.com/YuminosukeSato/scicov/pkg/log"
)

// AssessDimension returns the log-evidence that the data summarised by
// spectrum (descending eigenvalues, at most nFeatures of them) have
// dimensionality rank.
//
// Zero or repeated eigenvalues among the leading rank+1 entries make the
// pairwise term undefined and yield ±Inf or NaN; callers must pass a strictly
// positive, non-degenerate spectrum.
func AssessDimension(spectrum []float64, rank, nSamples, nFeatures int) (float64, error) {
	if rank < 0 || rank > len(spectrum) {
		return 0, errors.NewRankError(rank, len(spectrum))
	}
	if err := checkShape("decomposition.AssessDimension", spectrum, nSamples, nFeatures); err != nil {
		return 0, err
	}

	n := float64(nSamples)
	nf := float64(nFeatures)
	r := float64(rank)

	// 階数rの部分空間（グラスマン多様体）上の事前分布の体積
	pu := -r * math.Ln2
	for i := 0; i < rank; i++ {
		k := (nf - float64(i)) / 2
		lg, _ := math.Lgamma(k)
		pu += lg - math.Log(math.Pi)*k
	}

	pl := 0.0
	for _, s := range spectrum[:rank] {
		pl += math.Log(s)
	}
	pl = -pl * n / 2

	// 残りの固有値は共通の分散 v で置き換える
	var pv, v float64
	if rank == nFeatures {
		v = 1
	} else {
		tail := 0.0
		for _, s := range spectrum[rank:] {
			tail += s
		}
		v = tail / (nf - r)
		pv = -math.Log(v) * n * (nf - r) / 2
	}

	m := nf*r - r*(r+1)/2
	pp := math.Log(2*math.Pi) * (m + r + 1) / 2

	smoothed := make([]float64, len(spectrum))
	copy(smoothed, spectrum)
	for i := rank; i < len(smoothed) && i < nFeatures; i++ {
		smoothed[i] = v
	}
	pa := 0.0
	logN := math.Log(n)
	for i := 0; i < rank; i++ {
		for j := i + 1; j < len(spectrum); j++ {
			pa += math.Log((spectrum[i]-spectrum[j])*(1/smoothed[j]-1/smoothed[i])) + logN
		}
	}

	return pu + pl + pv + pp - pa/2 - r*logN/2, nil
}

// InferDimension evaluates AssessDimension for every candidate rank and
// returns the most probable one together with all scores (scores[r] is the
// log-evidence of rank r).
//
// Candidate ranks run from 0 to len(spectrum) when the spectrum covers every
// feature, and to len(spectrum)-1 otherwise, since a truncated spectrum
// carries no residual variance for the full rank. NaN scores are never
// selected; ties keep the smaller rank.
func InferDimension(spectrum []float64, nSamples, nFeatures int) (int, []float64, error) {
	const op = "decomposition.InferDimension"
	if len(spectrum) == 0 {
		return 0, nil, errors.NewValueError(op, "spectrum must not be empty")
	}
	if err := checkShape(op, spectrum, nSamples, nFeatures); err != nil {
		return 0, nil, err
	}

	maxRank := len(spectrum)
	if maxRank < nFeatures {
		maxRank--
	}

	scores := make([]float64, maxRank+1)
	best := -1
	for rank := range scores {
		ll, err := AssessDimension(spectrum, rank, nSamples, nFeatures)
		if err != nil {
			return 0, nil, err
		}
		scores[rank] = ll
		if math.IsNaN(ll) {
			continue
		}
		if best < 0 || ll > scores[best] {
			best = rank
		}
	}
	if best < 0 {
		return 0, scores, errors.NewValueError(op, "log-evidence is NaN for every rank; the spectrum is degenerate")
	}

	log.GetLoggerWithName("decomposition").Debug("dimension inferred",
		log.OperationKey, log.OperationInferDim,
		log.RankKey, best,
		log.ScoreKey, scores[best],
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
	)
	return best, scores, nil
}

func checkShape(op string, spectrum []float64, nSamples, nFeatures int) error {
	if nSamples < 1 {
		return errors.NewValueError(op, "nSamples must be positive")
	}
	if len(spectrum) > nFeatures {
		return errors.NewDimensionError(op, nFeatures, len(spectrum), 1)
	}
	return nil
}
