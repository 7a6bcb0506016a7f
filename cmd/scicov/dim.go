package main

import (
	"github.com/YuminosukeSato/scicov/covariance"
	"github.com/YuminosukeSato/scicov/decomposition"
	"github.com/YuminosukeSato/scicov/pkg/errors"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

type dimReport struct {
	Input                  string    `yaml:"input"`
	Samples                int       `yaml:"samples"`
	Features               int       `yaml:"features"`
	Source                 string    `yaml:"source"`
	Spectrum               []float64 `yaml:"spectrum"`
	Rank                   int       `yaml:"rank"`
	LogEvidence            []float64 `yaml:"log_evidence"`
	ExplainedVarianceRatio []float64 `yaml:"explained_variance_ratio"`
	CumulativeVariance     []float64 `yaml:"cumulative_variance"`
	VarianceThreshold      float64   `yaml:"variance_threshold"`
	ComponentsForVariance  int       `yaml:"components_for_variance"`
}

// dimension holds what both dim and plot need from one input file.
type dimension struct {
	X        *mat.Dense
	est      *covariance.EmpiricalCovariance
	source   string
	spectrum []float64
	rank     int
	scores   []float64
}

func newDimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dim FILE",
		Short: "Infer the effective dimensionality of a dataset",
		Long: `Fit a covariance to FILE, take its eigenvalue spectrum and select the
rank with the highest log-evidence.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold, _ := cmd.Flags().GetFloat64("variance")
			d, err := inferFile(cmd, args[0])
			if err != nil {
				return err
			}
			ratio, cumulative, err := decomposition.ExplainedVarianceRatio(d.spectrum)
			if err != nil {
				return err
			}
			k, err := decomposition.ComponentsForVariance(d.spectrum, threshold)
			if err != nil {
				return err
			}

			n, p := d.X.Dims()
			report := dimReport{
				Input:                  args[0],
				Samples:                n,
				Features:               p,
				Source:                 d.source,
				Spectrum:               d.spectrum,
				Rank:                   d.rank,
				LogEvidence:            d.scores,
				ExplainedVarianceRatio: ratio,
				CumulativeVariance:     cumulative,
				VarianceThreshold:      threshold,
				ComponentsForVariance:  k,
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(report); err != nil {
				return errors.Wrap(err, "write report")
			}
			return enc.Close()
		},
	}
	addSpectrumFlags(cmd)
	cmd.Flags().Float64("variance", 0.95, "Cumulative explained variance for components_for_variance")
	return cmd
}

func addSpectrumFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("from-svd", false, "Take the spectrum from the SVD of the centered data")
}

// inferFile reads name, derives its spectrum and infers the dimensionality.
func inferFile(cmd *cobra.Command, name string) (*dimension, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	X, err := readMatrixFile(name)
	if err != nil {
		return nil, err
	}
	n, p := X.Dims()
	if X, _, err = cfg.prepare(X); err != nil {
		return nil, errors.Wrapf(err, "standardize %s", name)
	}

	est := covariance.NewEmpiricalCovariance(cfg.estimatorOptions()...)
	if err := est.Fit(X); err != nil {
		return nil, errors.Wrapf(err, "fit %s", name)
	}

	d := &dimension{X: X, est: est, source: "covariance"}
	if fromSVD, _ := cmd.Flags().GetBool("from-svd"); fromSVD {
		axes, err := decomposition.FitPrincipalAxes(X)
		if err != nil {
			return nil, err
		}
		d.source = "svd"
		d.spectrum = axes.Spectrum
	} else {
		cov, err := est.Covariance()
		if err != nil {
			return nil, err
		}
		if d.spectrum, err = decomposition.SpectrumFromCovariance(cov); err != nil {
			return nil, err
		}
	}

	d.rank, d.scores, err = decomposition.InferDimension(d.spectrum, n, p)
	if err != nil {
		return nil, errors.Wrapf(err, "infer dimension of %s", name)
	}
	return d, nil
}
