package main

import (
	"github.com/YuminosukeSato/scicov/core/model"
	"github.com/YuminosukeSato/scicov/covariance"
	"github.com/YuminosukeSato/scicov/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type scoreReport struct {
	Input     string          `yaml:"input"`
	Model     string          `yaml:"model"`
	Samples   int             `yaml:"samples"`
	Features  int             `yaml:"features"`
	Score     float64         `yaml:"score"`
	Distances *distanceReport `yaml:"mahalanobis"`
}

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score --model MODEL FILE...",
		Short: "Score data under a model saved by fit --save",
		Long: `Load a covariance model written by "scicov fit --save" and report the mean
Gaussian log-likelihood and Mahalanobis distances of each input file.

The data is scored as is. Models fitted with --standardize were trained on
scaled data, so --standardize is rejected here.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Standardize {
				return errors.NewValidationError("standardize", "not supported when scoring a saved model", true)
			}
			width, err := binWidthFlag(cmd)
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("model")
			if path == "" {
				return errors.NewValidationError("model", "is required", path)
			}

			est := covariance.NewEmpiricalCovariance()
			if err := model.LoadModel(est, path); err != nil {
				return errors.Wrapf(err, "load %s", path)
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			for _, name := range args {
				r, err := scoreFile(est, name, width)
				if err != nil {
					return err
				}
				r.Model = path
				if err := enc.Encode(r); err != nil {
					return errors.Wrap(err, "write report")
				}
			}
			return enc.Close()
		},
	}
	cmd.Flags().String("model", "", "Model file written by fit --save")
	cmd.Flags().Float64("bin-width", 1, "Width of the Mahalanobis distance histogram bins")
	return cmd
}

func scoreFile(est *covariance.EmpiricalCovariance, name string, width float64) (*scoreReport, error) {
	X, err := readMatrixFile(name)
	if err != nil {
		return nil, err
	}
	score, err := est.Score(X)
	if err != nil {
		return nil, errors.Wrapf(err, "score %s", name)
	}
	dist, err := est.Mahalanobis(X)
	if err != nil {
		return nil, errors.Wrapf(err, "score %s", name)
	}
	summary, err := summarizeDistances(dist, width)
	if err != nil {
		return nil, err
	}
	n, p := X.Dims()
	return &scoreReport{
		Input:     name,
		Samples:   n,
		Features:  p,
		Score:     score,
		Distances: summary,
	}, nil
}
