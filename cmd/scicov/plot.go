package main

import (
	"github.com/YuminosukeSato/scicov/pkg/errors"
	"github.com/YuminosukeSato/scicov/visualize"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

const (
	kindEvidence = "evidence"
	kindSpectrum = "spectrum"
	kindDistance = "distance"
)

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot FILE",
		Short: "Plot the log-evidence, spectrum or Mahalanobis distances of a dataset",
		Long: `Plot diagnostics of FILE. The image format follows the extension of
the output file (png, svg, pdf).

Example:
  scicov plot --kind spectrum -o spectrum.svg data.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("output")
			kind, _ := cmd.Flags().GetString("kind")
			bins, _ := cmd.Flags().GetInt("bins")
			width, _ := cmd.Flags().GetFloat64("width")
			height, _ := cmd.Flags().GetFloat64("height")

			d, err := inferFile(cmd, args[0])
			if err != nil {
				return err
			}

			var p *plot.Plot
			switch kind {
			case kindEvidence:
				p, err = visualize.EvidencePlot(d.scores, d.rank)
			case kindSpectrum:
				p, err = visualize.SpectrumPlot(d.spectrum)
			case kindDistance:
				dist, derr := d.est.Mahalanobis(d.X)
				if derr != nil {
					return derr
				}
				p, err = visualize.DistancePlot(dist, bins)
			default:
				return errors.NewValidationError("kind", "must be evidence, spectrum or distance", kind)
			}
			if err != nil {
				return err
			}
			return visualize.Save(p, out, vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch)
		},
	}
	addSpectrumFlags(cmd)
	cmd.Flags().StringP("output", "o", "evidence.png", "Output image file")
	cmd.Flags().String("kind", kindEvidence, "What to plot: evidence, spectrum or distance")
	cmd.Flags().Int("bins", 20, "Histogram bins for --kind distance")
	cmd.Flags().Float64("width", 0, "Image width in inches (default 6)")
	cmd.Flags().Float64("height", 0, "Image height in inches (default 4)")
	return cmd
}
