// Package scicov provides covariance, precision and dimensionality
// estimation for Go, built on gonum.
//
// scicov offers a small scikit-learn-like API: an empirical (maximum
// likelihood) covariance estimator with precision, Gaussian log-likelihood
// scoring and Mahalanobis distances, robust pseudo-inverses and SVD, and
// Bayesian model selection of the effective dimensionality of a dataset.
//
// # Installation
//
//	go get github.com/YuminosukeSato/scicov
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/scicov/covariance"
//	    "github.com/YuminosukeSato/scicov/decomposition"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 2, []float64{1, 2, 2, 4.1, 3, 5.9, 4, 8.2})
//
//	    est := covariance.NewEmpiricalCovariance()
//	    if err := est.Fit(X); err != nil {
//	        log.Fatal(err)
//	    }
//	    score, _ := est.Score(X)
//	    fmt.Println("mean log-likelihood:", score)
//
//	    cov, _ := est.Covariance()
//	    spectrum, _ := decomposition.SpectrumFromCovariance(cov)
//	    rank, _, _ := decomposition.InferDimension(spectrum, 4, 2)
//	    fmt.Println("effective dimensionality:", rank)
//	}
//
// # Packages
//
//   - covariance: EmpiricalCovariance, LogLikelihood, LogDet
//   - decomposition: dimensionality inference, spectra, principal axes
//   - linalg: Pinv, Pinvh, SafeSVD and array helpers
//   - preprocessing: StandardScaler
//   - visualize: evidence, spectrum and distance plots (gonum/plot)
//   - core/model: fitted state, parameters and gob persistence
//   - core/parallel: parallel processing utilities
//   - pkg/errors, pkg/log: structured errors, warnings and logging
//
// The scicov command (cmd/scicov) exposes the same functionality over
// numeric text files.
//
// # Normalisation
//
// Covariances are divided by n_samples, not n_samples-1. They are maximum
// likelihood estimates, which is what the log-likelihood assumes.
//
// # License
//
// scicov is released under the MIT License.
package scicov
