package main

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/YuminosukeSato/scicov/covariance"
	"github.com/YuminosukeSato/scicov/pkg/errors"
	"github.com/YuminosukeSato/scicov/preprocessing"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

// Config holds the defaults read from the --config file. Command-line flags
// that are set explicitly take precedence.
type Config struct {
	StorePrecision bool   `toml:"store_precision"`
	AssumeCentered bool   `toml:"assume_centered"`
	Standardize    bool   `toml:"standardize"`
	Norm           string `toml:"norm"`
	Scaling        bool   `toml:"scaling"`
	Squared        bool   `toml:"squared"`
	LogLevel       string `toml:"log_level"`
}

func defaultConfig() Config {
	return Config{
		StorePrecision: true,
		Norm:           covariance.NormFrobenius.String(),
		Scaling:        true,
		Squared:        true,
		LogLevel:       "warn",
	}
}

// readConfig decodes a TOML file over the defaults. An empty name yields the
// defaults.
func readConfig(name string) (Config, error) {
	cfg := defaultConfig()
	if name == "" {
		return cfg, nil
	}
	is, err := os.Open(name)
	if err != nil {
		return cfg, errors.Wrapf(err, "readConfig %s", name)
	}
	defer is.Close()
	md, err := toml.NewDecoder(is).Decode(&cfg)
	if err != nil {
		return cfg, errors.Wrapf(err, "readConfig %s", name)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.NewValidationError(undecoded[0].String(), "unknown configuration key", name)
	}
	return cfg, nil
}

// loadConfig reads --config and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command) (Config, error) {
	name, _ := cmd.Flags().GetString("config")
	cfg, err := readConfig(name)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("assume-centered") {
		cfg.AssumeCentered, _ = flags.GetBool("assume-centered")
	}
	if flags.Changed("standardize") {
		cfg.Standardize, _ = flags.GetBool("standardize")
	}
	if flags.Lookup("store-precision") != nil && flags.Changed("store-precision") {
		cfg.StorePrecision, _ = flags.GetBool("store-precision")
	}
	if flags.Lookup("norm") != nil && flags.Changed("norm") {
		cfg.Norm, _ = flags.GetString("norm")
	}
	if flags.Lookup("scaling") != nil && flags.Changed("scaling") {
		cfg.Scaling, _ = flags.GetBool("scaling")
	}
	if flags.Lookup("squared") != nil && flags.Changed("squared") {
		cfg.Squared, _ = flags.GetBool("squared")
	}
	return cfg, nil
}

// prepare standardizes X when configured. The returned scaler is nil
// otherwise.
func (c Config) prepare(X *mat.Dense) (*mat.Dense, *preprocessing.StandardScaler, error) {
	if !c.Standardize {
		return X, nil, nil
	}
	scaler := preprocessing.NewStandardScaler(true, true)
	Xs, err := scaler.FitTransform(X)
	if err != nil {
		return nil, nil, err
	}
	return Xs, scaler, nil
}

// estimatorOptions turns the configuration into estimator options.
func (c Config) estimatorOptions() []covariance.Option {
	return []covariance.Option{
		covariance.WithStorePrecision(c.StorePrecision),
		covariance.WithAssumeCentered(c.AssumeCentered),
	}
}
