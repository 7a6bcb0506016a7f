// Package covariance implements the maximum-likelihood (empirical) covariance
// estimator, Gaussian log-likelihood scoring, and the error norms and
// Mahalanobis distances built on a fitted covariance.
//
// Covariances are normalised by n_samples, not n_samples-1, so they are the
// maximum-likelihood estimates that LogLikelihood expects.
//
// Basic usage:
//
//	est := covariance.NewEmpiricalCovariance()
//	if err := est.Fit(X); err != nil {
//	    return err
//	}
//	ll, err := est.Score(XTest)
//	d2, err := est.Mahalanobis(XTest)
//
// An EmpiricalCovariance is not safe for concurrent Fit calls; give each
// goroutine its own estimator. Read-only methods may run concurrently once
// Fit has returned.
package covariance
