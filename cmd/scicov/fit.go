package main

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/YuminosukeSato/scicov/core/model"
	"github.com/YuminosukeSato/scicov/covariance"
	"github.com/YuminosukeSato/scicov/linalg"
	"github.com/YuminosukeSato/scicov/pkg/errors"
	"github.com/YuminosukeSato/scicov/pkg/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

type fitReport struct {
	Input      string          `yaml:"input"`
	Samples    int             `yaml:"samples"`
	Features   int             `yaml:"features"`
	Location   []float64       `yaml:"location"`
	Covariance [][]float64     `yaml:"covariance"`
	Precision  [][]float64     `yaml:"precision,omitempty"`
	Distances  *distanceReport `yaml:"mahalanobis,omitempty"`
	Score      *float64        `yaml:"score,omitempty"`
	ErrorNorm  *normReport     `yaml:"error_norm,omitempty"`
}

type distanceReport struct {
	Median    float64   `yaml:"median"`
	Max       float64   `yaml:"max"`
	BinWidth  float64   `yaml:"bin_width"`
	Histogram []float64 `yaml:"histogram"`
}

type normReport struct {
	Against string  `yaml:"against"`
	Norm    string  `yaml:"norm"`
	Scaling bool    `yaml:"scaling"`
	Squared bool    `yaml:"squared"`
	Value   float64 `yaml:"value"`
}

type fitOptions struct {
	cfg        Config
	norm       covariance.Norm
	test       *mat.Dense
	compare    *mat.SymDense
	compareSrc string
	binWidth   float64
	saveDir    string
}

func newFitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit FILE...",
		Short: "Fit an empirical covariance to each input file",
		Long: `Fit a maximum-likelihood covariance to every input file and print one
YAML report per file. Files are processed concurrently.

Example:
  scicov fit --test held-out.txt --compare reference.txt train.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts := fitOptions{cfg: cfg}
			if opts.norm, err = covariance.ParseNorm(cfg.Norm); err != nil {
				return err
			}
			if opts.binWidth, err = binWidthFlag(cmd); err != nil {
				return err
			}
			opts.saveDir, _ = cmd.Flags().GetString("save")

			if name, _ := cmd.Flags().GetString("test"); name != "" {
				if opts.test, err = readMatrixFile(name); err != nil {
					return err
				}
			}
			if name, _ := cmd.Flags().GetString("compare"); name != "" {
				if opts.compare, err = readSymmetricFile(name); err != nil {
					return err
				}
				opts.compareSrc = name
			}

			reports, err := fitAll(cmd.Context(), args, opts)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			for _, r := range reports {
				if err := enc.Encode(r); err != nil {
					return errors.Wrap(err, "write report")
				}
			}
			return enc.Close()
		},
	}

	cmd.Flags().Bool("store-precision", true, "Cache the precision matrix and report it")
	cmd.Flags().String("test", "", "Score this file under each fitted model")
	cmd.Flags().String("compare", "", "Covariance matrix file to measure the error norm against")
	cmd.Flags().String("norm", "frobenius", "Error norm: frobenius or spectral")
	cmd.Flags().Bool("scaling", true, "Divide the squared error norm by the number of features")
	cmd.Flags().Bool("squared", true, "Report the squared error norm")
	cmd.Flags().Float64("bin-width", 1, "Width of the Mahalanobis distance histogram bins")
	cmd.Flags().String("save", "", "Directory to save fitted models to (gob)")
	return cmd
}

// fitAll fits one estimator per file concurrently. Reports keep the order of
// names.
func fitAll(ctx context.Context, names []string, opts fitOptions) ([]*fitReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	reports := make([]*fitReport, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// a panic in one worker must not take the other files down
			return errors.SafeExecute("fit "+name, func() error {
				r, err := fitFile(name, opts)
				if err != nil {
					return err
				}
				reports[i] = r
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func fitFile(name string, opts fitOptions) (*fitReport, error) {
	logger := log.GetLoggerWithName("cmd").With(log.InputKey, name)
	start := time.Now()

	X, err := readMatrixFile(name)
	if err != nil {
		return nil, err
	}
	X, scaler, err := opts.cfg.prepare(X)
	if err != nil {
		return nil, errors.Wrapf(err, "standardize %s", name)
	}
	est := covariance.NewEmpiricalCovariance(append(opts.cfg.estimatorOptions(),
		covariance.WithLogger(logger))...)
	if err := est.Fit(X); err != nil {
		return nil, errors.Wrapf(err, "fit %s", name)
	}

	n, p := X.Dims()
	report := &fitReport{Input: name, Samples: n, Features: p}
	if report.Location, err = est.Location(); err != nil {
		return nil, err
	}
	cov, err := est.Covariance()
	if err != nil {
		return nil, err
	}
	report.Covariance = rows(cov)
	if opts.cfg.StorePrecision {
		prec, err := est.Precision()
		if err != nil {
			return nil, err
		}
		report.Precision = rows(prec)
	}

	dist, err := est.Mahalanobis(X)
	if err != nil {
		return nil, err
	}
	if report.Distances, err = summarizeDistances(dist, opts.binWidth); err != nil {
		return nil, err
	}

	if opts.test != nil {
		test := mat.Matrix(opts.test)
		if scaler != nil {
			if test, err = scaler.Transform(opts.test); err != nil {
				return nil, errors.Wrapf(err, "standardize %s", name)
			}
		}
		score, err := est.Score(test)
		if err != nil {
			return nil, errors.Wrapf(err, "score %s", name)
		}
		report.Score = &score
	}
	if opts.compare != nil {
		v, err := est.ErrorNorm(opts.compare, opts.norm, opts.cfg.Scaling, opts.cfg.Squared)
		if err != nil {
			return nil, errors.Wrapf(err, "error norm %s", name)
		}
		report.ErrorNorm = &normReport{
			Against: opts.compareSrc,
			Norm:    opts.norm.String(),
			Scaling: opts.cfg.Scaling,
			Squared: opts.cfg.Squared,
			Value:   v,
		}
	}
	if opts.saveDir != "" {
		if err := model.SaveModel(est, modelPath(opts.saveDir, name)); err != nil {
			return nil, err
		}
	}

	logger.Info("fitted",
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return report, nil
}

// maxHistogramBins bounds the distance histogram so a tiny bin width cannot
// allocate without limit.
const maxHistogramBins = 1_000_000

func binWidthFlag(cmd *cobra.Command) (float64, error) {
	width, _ := cmd.Flags().GetFloat64("bin-width")
	if err := errors.CheckScalar("bin-width", width); err != nil {
		return 0, err
	}
	if width <= 0 {
		return 0, errors.NewValidationError("bin-width", "must be positive", width)
	}
	return width, nil
}

// summarizeDistances reports the median of the squared distances and their
// histogram with bins of the given width starting at zero.
func summarizeDistances(dist []float64, width float64) (*distanceReport, error) {
	if err := errors.CheckValues("summarizeDistances", dist); err != nil {
		return nil, err
	}
	maxDist := 0.0
	for _, d := range dist {
		maxDist = math.Max(maxDist, d)
	}
	if maxDist/width >= maxHistogramBins {
		return nil, errors.NewValidationError("bin-width",
			fmt.Sprintf("too small for a maximum distance of %g (at most %d bins)", maxDist, maxHistogramBins), width)
	}

	bins := make([]int, len(dist))
	for i, d := range dist {
		// rounding can make the distance of the location slightly negative
		bins[i] = int(math.Floor(math.Max(d, 0) / width))
	}
	hist, err := linalg.Bincount(bins, nil, 0)
	if err != nil {
		return nil, err
	}
	return &distanceReport{
		Median:    linalg.Median(dist),
		Max:       maxDist,
		BinWidth:  width,
		Histogram: hist,
	}, nil
}

// modelPath maps data/train.txt to dir/train.gob.
func modelPath(dir, input string) string {
	base := filepath.Base(input)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".gob")
}

func rows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		for j := range out[i] {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}

// readSymmetricFile reads a square matrix and checks that it is symmetric.
func readSymmetricFile(name string) (*mat.SymDense, error) {
	m, err := readMatrixFile(name)
	if err != nil {
		return nil, err
	}
	r, c := m.Dims()
	if r != c {
		return nil, errors.NewModelError("readSymmetricFile", name, errors.ErrNotSquare)
	}
	if !mat.EqualApprox(m, m.T(), 1e-12) {
		return nil, errors.NewValueError("readSymmetricFile", name+" is not symmetric")
	}
	s := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			s.SetSym(i, j, m.At(i, j))
		}
	}
	return s, nil
}
