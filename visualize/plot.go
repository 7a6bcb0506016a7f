// Package visualize draws the diagnostics of covariance and dimensionality
// estimation with gonum/plot.
package visualize

import (
	"image/color"
	"math"
	"path/filepath"

	"github.com/YuminosukeSato/scicov/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Default image size used by Save when width or height is not positive.
const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

var highlight = color.RGBA{R: 220, G: 40, B: 40, A: 255}

// EvidencePlot plots the log-evidence of every candidate rank and marks the
// selected one. Non-finite scores are left out of the curve.
func EvidencePlot(scores []float64, selected int) (*plot.Plot, error) {
	const op = "visualize.EvidencePlot"
	if selected < 0 || selected >= len(scores) {
		return nil, errors.NewRankError(selected, len(scores)-1)
	}

	pts := make(plotter.XYs, 0, len(scores))
	for r, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(r), Y: s})
	}
	if len(pts) == 0 {
		return nil, errors.NewValueError(op, "no finite scores to plot")
	}
	best := scores[selected]
	if math.IsNaN(best) || math.IsInf(best, 0) {
		return nil, errors.NewValueError(op, "the selected rank has a non-finite score")
	}

	p := plot.New()
	p.Title.Text = "Log-evidence by rank"
	p.X.Label.Text = "rank"
	p.Y.Label.Text = "log-evidence"
	p.Add(plotter.NewGrid())

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build evidence curve")
	}
	points.Shape = draw.CircleGlyph{}
	p.Add(line, points)

	mark, err := plotter.NewScatter(plotter.XYs{{X: float64(selected), Y: best}})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build selection marker")
	}
	mark.Shape = draw.RingGlyph{}
	mark.Color = highlight
	mark.Radius = vg.Points(6)
	p.Add(mark)
	p.Legend.Add("log-evidence", line, points)
	p.Legend.Add("selected rank", mark)
	p.Legend.Top = true
	return p, nil
}

// SpectrumPlot draws the eigenvalue spectrum as a bar chart, one bar per
// component in the given order.
func SpectrumPlot(spectrum []float64) (*plot.Plot, error) {
	if len(spectrum) == 0 {
		return nil, errors.NewValueError("visualize.SpectrumPlot", "spectrum must not be empty")
	}
	values := make(plotter.Values, len(spectrum))
	copy(values, spectrum)

	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build spectrum bars")
	}
	bars.LineStyle.Width = vg.Length(0)

	p := plot.New()
	p.Title.Text = "Eigenvalue spectrum"
	p.X.Label.Text = "component"
	p.Y.Label.Text = "eigenvalue"
	p.Add(bars)
	return p, nil
}

// DistancePlot draws a histogram of squared Mahalanobis distances.
func DistancePlot(dist []float64, bins int) (*plot.Plot, error) {
	if len(dist) == 0 {
		return nil, errors.NewValueError("visualize.DistancePlot", "no distances to plot")
	}
	if bins < 1 {
		return nil, errors.NewValidationError("bins", "must be positive", bins)
	}
	hist, err := plotter.NewHist(plotter.Values(dist), bins)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build histogram")
	}

	p := plot.New()
	p.Title.Text = "Squared Mahalanobis distances"
	p.X.Label.Text = "squared distance"
	p.Y.Label.Text = "count"
	p.Add(hist)
	return p, nil
}

// Save writes p to path. The format follows the file extension (.png, .svg,
// .pdf, ...). Non-positive sizes fall back to DefaultWidth and DefaultHeight.
func Save(p *plot.Plot, path string, width, height vg.Length) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if filepath.Ext(path) == "" {
		return errors.NewValueError("visualize.Save", "output path needs an extension to select the image format")
	}
	if err := p.Save(width, height, path); err != nil {
		return errors.Wrapf(err, "failed to save plot to %s", path)
	}
	return nil
}
