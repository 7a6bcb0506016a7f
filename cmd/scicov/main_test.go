package main

import (
	"bytes"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/YuminosukeSato/scicov/core/model"
	"github.com/YuminosukeSato/scicov/covariance"
	"github.com/YuminosukeSato/scicov/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gopkg.in/yaml.v3"
)

const smallData = `# x y
1 2
3,4
5	0
`

// runCmd executes the root command with args and returns what it printed.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(args, &out, &errOut)
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func formatMatrix(m mat.Matrix) string {
	r, c := m.Dims()
	var sb strings.Builder
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.FormatFloat(m.At(i, j), 'g', -1, 64))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// lowRankFile writes samples with one dominant direction.
func lowRankFile(t *testing.T, dir string) string {
	t.Helper()
	sigma := mat.NewSymDense(4, []float64{
		8.5, 8, 8, 8,
		8, 8.5, 8, 8,
		8, 8, 8.5, 8,
		8, 8, 8, 8.5,
	})
	dist, ok := distmv.NewNormal([]float64{1, 2, 3, 4}, sigma, rand.NewPCG(5, 6))
	require.True(t, ok)
	X := mat.NewDense(400, 4, nil)
	row := make([]float64, 4)
	for i := 0; i < 400; i++ {
		X.SetRow(i, dist.Rand(row))
	}
	return writeFile(t, dir, "lowrank.txt", formatMatrix(X))
}

func TestReadMatrix(t *testing.T) {
	m, err := readMatrix(strings.NewReader(smallData))
	require.NoError(t, err)
	assert.True(t, mat.Equal(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 0}), m))

	tests := []struct {
		name  string
		input string
	}{
		{"ragged", "1 2\n3\n"},
		{"not a number", "1 x\n"},
		{"empty", "# nothing\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readMatrix(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}

	_, err = readMatrix(strings.NewReader("1 2\n3\n"))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
	_, err = readMatrix(strings.NewReader(""))
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestReadConfig(t *testing.T) {
	cfg, err := readConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)

	dir := t.TempDir()
	path := writeFile(t, dir, "scicov.toml", `
store_precision = false
norm = "spectral"
squared = false
log_level = "debug"
`)
	cfg, err = readConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.StorePrecision)
	assert.Equal(t, "spectral", cfg.Norm)
	assert.False(t, cfg.Squared)
	assert.True(t, cfg.Scaling, "unset keys keep their defaults")
	assert.Equal(t, "debug", cfg.LogLevel)

	bad := writeFile(t, dir, "bad.toml", "alpha = 1\n")
	_, err = readConfig(bad)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = readConfig(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "scicov version "+version)
}

func TestFitCmd(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "small.txt", smallData)

	out, err := runCmd(t, "fit", data)
	require.NoError(t, err)

	var report fitReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, 3, report.Samples)
	assert.Equal(t, 2, report.Features)
	assert.InDeltaSlice(t, []float64{3, 2}, report.Location, 1e-12)
	assert.InDeltaSlice(t, []float64{8.0 / 3, -4.0 / 3}, report.Covariance[0], 1e-12)
	assert.InDeltaSlice(t, []float64{0.25, 0.5}, report.Precision[1], 1e-9)
	require.NotNil(t, report.Distances)
	assert.InDelta(t, 2, report.Distances.Median, 1e-9)
	assert.Nil(t, report.Score)
	assert.Nil(t, report.ErrorNorm)
}

func TestFitCmdTestAndCompare(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "small.txt", smallData)
	ref := writeFile(t, dir, "ref.txt", "2.6666666666666665 -1.3333333333333333\n-1.3333333333333333 2.6666666666666665\n")

	out, err := runCmd(t, "fit", "--test", data, "--compare", ref, "--norm", "spectral", data)
	require.NoError(t, err)

	var report fitReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	require.NotNil(t, report.Score)
	require.NotNil(t, report.ErrorNorm)
	assert.Equal(t, "spectral", report.ErrorNorm.Norm)
	assert.InDelta(t, 0, report.ErrorNorm.Value, 1e-12)

	est := covariance.NewEmpiricalCovariance()
	X, err := readMatrixFile(data)
	require.NoError(t, err)
	require.NoError(t, est.Fit(X))
	want, err := est.Score(X)
	require.NoError(t, err)
	assert.InDelta(t, want, *report.Score, 1e-12)
}

func TestFitCmdManyFilesKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var names []string
	for i := 0; i < 6; i++ {
		content := fmt.Sprintf("%d 0\n%d 1\n%d 3\n", i, i+2, i+4)
		names = append(names, writeFile(t, dir, fmt.Sprintf("d%d.txt", i), content))
	}

	out, err := runCmd(t, append([]string{"fit"}, names...)...)
	require.NoError(t, err)

	dec := yaml.NewDecoder(strings.NewReader(out))
	for i, name := range names {
		var report fitReport
		require.NoError(t, dec.Decode(&report))
		assert.Equal(t, name, report.Input)
		assert.InDelta(t, float64(i+2), report.Location[0], 1e-12)
	}
}

func TestFitCmdSave(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "small.txt", smallData)
	modelDir := t.TempDir()

	_, err := runCmd(t, "fit", "--save", modelDir, data)
	require.NoError(t, err)

	est := covariance.NewEmpiricalCovariance()
	require.NoError(t, model.LoadModel(est, filepath.Join(modelDir, "small.gob")))
	loc, err := est.Location()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{3, 2}, loc, 1e-12)
}

func TestFitCmdErrors(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "small.txt", smallData)

	_, err := runCmd(t, "fit", filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)

	_, err = runCmd(t, "fit", "--norm", "nuclear", data)
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))

	wide := writeFile(t, dir, "wide.txt", "1 2 3\n4 5 6\n")
	_, err = runCmd(t, "fit", "--test", wide, data)
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestFitCmdConfigAndFlags(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "small.txt", smallData)
	cfg := writeFile(t, dir, "scicov.toml", "store_precision = false\nassume_centered = true\n")

	out, err := runCmd(t, "--config", cfg, "fit", data)
	require.NoError(t, err)
	var report fitReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Nil(t, report.Precision)
	assert.Equal(t, []float64{0, 0}, report.Location)

	out, err = runCmd(t, "--config", cfg, "fit", "--store-precision", data)
	require.NoError(t, err)
	report = fitReport{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.NotNil(t, report.Precision)
}

func TestDimCmd(t *testing.T) {
	dir := t.TempDir()
	data := lowRankFile(t, dir)

	for _, args := range [][]string{{"dim", data}, {"dim", "--from-svd", data}, {"dim", "--standardize", data}} {
		out, err := runCmd(t, args...)
		require.NoError(t, err)

		var report dimReport
		require.NoError(t, yaml.Unmarshal([]byte(out), &report))
		assert.Equal(t, 1, report.Rank)
		assert.Len(t, report.Spectrum, 4)
		assert.Len(t, report.LogEvidence, 5)
		assert.InDelta(t, 1, report.CumulativeVariance[3], 1e-9)
		assert.GreaterOrEqual(t, report.ComponentsForVariance, 1)
	}
}

func TestPlotCmd(t *testing.T) {
	dir := t.TempDir()
	data := lowRankFile(t, dir)

	for _, kind := range []string{kindEvidence, kindSpectrum, kindDistance} {
		out := filepath.Join(dir, kind+".png")
		_, err := runCmd(t, "plot", "--kind", kind, "-o", out, data)
		require.NoError(t, err, kind)
		info, err := os.Stat(out)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	_, err := runCmd(t, "plot", "--kind", "pie", "-o", filepath.Join(dir, "x.png"), data)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestSummarizeDistances(t *testing.T) {
	r, err := summarizeDistances([]float64{0.2, 1.5, 1.7, 3.1, -1e-17}, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 0, 1}, r.Histogram)
	assert.InDelta(t, 1.5, r.Median, 1e-12)
	assert.InDelta(t, 3.1, r.Max, 1e-12)

	r, err = summarizeDistances([]float64{0, maxHistogramBins - 1}, 1)
	require.NoError(t, err)
	assert.Len(t, r.Histogram, maxHistogramBins)

	var ve *errors.ValidationError
	_, err = summarizeDistances([]float64{0, maxHistogramBins}, 1)
	assert.True(t, errors.As(err, &ve), "got %v", err)
	_, err = summarizeDistances([]float64{0, 1}, 1e-300)
	assert.True(t, errors.As(err, &ve), "got %v", err)

	_, err = summarizeDistances([]float64{1, math.NaN()}, 1)
	var nie *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &nie))
}

func TestFitCmdBinWidth(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "small.txt", smallData)

	_, err := runCmd(t, "fit", "--bin-width", "1e-300", data)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = runCmd(t, "fit", "--bin-width", "0", data)
	assert.True(t, errors.As(err, &ve))

	_, err = runCmd(t, "fit", "--bin-width", "Inf", data)
	var nie *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &nie))
}

func TestRunRestoresWarningsAfterFailure(t *testing.T) {
	var got []error
	prev := errors.SetWarningHandler(func(w error) { got = append(got, w) })
	t.Cleanup(func() { errors.SetWarningHandler(prev) })

	_, err := runCmd(t, "fit", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)

	errors.Warn(errors.NewStabilityWarning("test", 1, 2))
	assert.Len(t, got, 1)
}

func TestScoreCmd(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "small.txt", smallData)
	modelDir := t.TempDir()

	out, err := runCmd(t, "fit", "--save", modelDir, "--test", data, data)
	require.NoError(t, err)
	var fitted fitReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &fitted))
	require.NotNil(t, fitted.Score)

	saved := filepath.Join(modelDir, "small.gob")
	out, err = runCmd(t, "score", "--model", saved, data)
	require.NoError(t, err)
	var report scoreReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, data, report.Input)
	assert.Equal(t, saved, report.Model)
	assert.Equal(t, 3, report.Samples)
	assert.InDelta(t, *fitted.Score, report.Score, 1e-12)
	require.NotNil(t, report.Distances)
	assert.InDelta(t, fitted.Distances.Median, report.Distances.Median, 1e-9)
}

func TestScoreCmdErrors(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "small.txt", smallData)
	modelDir := t.TempDir()
	_, err := runCmd(t, "fit", "--save", modelDir, data)
	require.NoError(t, err)
	saved := filepath.Join(modelDir, "small.gob")

	var ve *errors.ValidationError
	_, err = runCmd(t, "score", data)
	assert.True(t, errors.As(err, &ve))

	_, err = runCmd(t, "--standardize", "score", "--model", saved, data)
	assert.True(t, errors.As(err, &ve))

	_, err = runCmd(t, "score", "--model", filepath.Join(modelDir, "missing.gob"), data)
	assert.Error(t, err)

	garbage := writeFile(t, dir, "garbage.gob", "not a model")
	_, err = runCmd(t, "score", "--model", garbage, data)
	assert.Error(t, err)

	wide := writeFile(t, dir, "wide.txt", "1 2 3\n4 5 6\n")
	_, err = runCmd(t, "score", "--model", saved, wide)
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestModelPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "train.gob"), modelPath("out", filepath.Join("data", "train.txt")))
	assert.Equal(t, filepath.Join("out", "train.gob"), modelPath("out", "train"))
}

func TestFitCmdStandardize(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "small.txt", smallData)

	out, err := runCmd(t, "fit", "--standardize", "--test", data, data)
	require.NoError(t, err)
	var report fitReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.InDeltaSlice(t, []float64{0, 0}, report.Location, 1e-12)
	assert.InDelta(t, 1, report.Covariance[0][0], 1e-12)
	assert.InDelta(t, 1, report.Covariance[1][1], 1e-12)
	require.NotNil(t, report.Score)
}
