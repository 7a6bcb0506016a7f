// Command scicov fits empirical covariances and infers the dimensionality of
// numeric datasets stored as text matrices.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/YuminosukeSato/scicov/pkg/log"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the command tree and removes the warning sink afterwards.
// cobra skips post-run hooks when a command fails, so this is not left to them.
func run(args []string, stdout, stderr io.Writer) error {
	root, cleanup := newRootCmd()
	defer cleanup()
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	return root.Execute()
}

// newRootCmd builds the command tree. cleanup undoes the global logging state
// installed by PersistentPreRunE and is safe to call when nothing ran.
func newRootCmd() (_ *cobra.Command, cleanup func()) {
	var uninstall func()
	rootCmd := &cobra.Command{
		Use:   "scicov",
		Short: "Covariance, precision and dimensionality estimation",
		Long: `scicov estimates maximum-likelihood covariances of numeric datasets.

Input files hold one sample per line with whitespace or comma separated
values. Lines starting with '#' are ignored. Reports are written as YAML.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			level, err := log.ToLogLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			logger := log.NewZerologLogger(cmd.ErrOrStderr(), level)
			log.SetProvider(log.NewZerologProvider(cmd.ErrOrStderr(), level))
			uninstall = log.InstallWarningSink(logger.Zerolog())
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "TOML file with default settings")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("assume-centered", false, "Treat the data as already centered")
	rootCmd.PersistentFlags().Bool("standardize", false, "Scale features to zero mean and unit variance first")

	rootCmd.AddCommand(
		newVersionCmd(),
		newFitCmd(),
		newDimCmd(),
		newPlotCmd(),
		newScoreCmd(),
	)
	return rootCmd, func() {
		if uninstall != nil {
			uninstall()
			uninstall = nil
		}
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scicov version %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
