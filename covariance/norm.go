package covariance

import (
	"fmt"

	"github.com/YuminosukeSato/scicov/pkg/errors"
)

// Norm selects how ErrorNorm measures the difference of two covariances.
type Norm int

const (
	// NormFrobenius is the sum of squared element-wise differences.
	NormFrobenius Norm = iota
	// NormSpectral is the largest eigenvalue of diffᵀ·diff.
	NormSpectral
)

func (n Norm) String() string {
	switch n {
	case NormFrobenius:
		return "frobenius"
	case NormSpectral:
		return "spectral"
	default:
		return fmt.Sprintf("Norm(%d)", int(n))
	}
}

// ParseNorm maps "frobenius" and "spectral" to their Norm.
func ParseNorm(name string) (Norm, error) {
	switch name {
	case "frobenius":
		return NormFrobenius, nil
	case "spectral":
		return NormSpectral, nil
	default:
		return 0, errors.NewValueError("covariance.ParseNorm",
			fmt.Sprintf("unsupported norm %q: only spectral and frobenius norms are implemented", name))
	}
}
