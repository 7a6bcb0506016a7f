// Package preprocessing はデータの前処理を提供する。
//
// 標準化したデータの最尤共分散は相関行列になるため、単位の異なる特徴量を
// 含むデータで次元推定を行う前に StandardScaler を使う。
package preprocessing

import (
	"fmt"

	"github.com/YuminosukeSato/scicov/core/model"
	"github.com/YuminosukeSato/scicov/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// 標準偏差がこれ未満の特徴量はスケール1として扱う（ゼロ除算を避ける）
const minScale = 1e-8

// Parameter names accepted by GetParams and SetParams.
const (
	ParamWithMean = "with_mean"
	ParamWithStd  = "with_std"
)

// StandardScaler は各特徴量を平均0、標準偏差1に変換する。
// 標準偏差は n で割る母標準偏差を使う。
type StandardScaler struct {
	state *model.StateManager

	withMean bool
	withStd  bool

	mean  []float64
	scale []float64
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	XScaled, err := scaler.FitTransform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		withMean: withMean,
		withStd:  withStd,
	}
}

// Fit は訓練データから平均と標準偏差を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if err := errors.CheckMatrix("StandardScaler.Fit", X); err != nil {
		return err
	}

	mean := make([]float64, c)
	scale := make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		m, std := stat.PopMeanStdDev(col, nil)
		if s.withMean {
			mean[j] = m
		}
		scale[j] = 1
		if s.withStd && std >= minScale {
			scale[j] = std
		}
	}

	s.mean = mean
	s.scale = scale
	s.state.SetFitted(r, c)
	return nil
}

// Transform は学習済みの統計情報でデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	_, c := X.Dims()
	if err := s.state.RequireFeatures("StandardScaler", "Transform", c); err != nil {
		return nil, err
	}
	return s.apply(X, func(v float64, j int) float64 { return (v - s.mean[j]) / s.scale[j] }), nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (*mat.Dense, error) {
	_, c := X.Dims()
	if err := s.state.RequireFeatures("StandardScaler", "InverseTransform", c); err != nil {
		return nil, err
	}
	return s.apply(X, func(v float64, j int) float64 { return v*s.scale[j] + s.mean[j] }), nil
}

func (s *StandardScaler) apply(X mat.Matrix, f func(v float64, j int) float64) *mat.Dense {
	r, c := X.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, f(X.At(i, j), j))
		}
	}
	return out
}

// Mean は学習した平均のコピーを返す
func (s *StandardScaler) Mean() ([]float64, error) {
	if err := s.state.RequireFitted("StandardScaler", "Mean"); err != nil {
		return nil, err
	}
	return append([]float64(nil), s.mean...), nil
}

// Scale は学習したスケールのコピーを返す
func (s *StandardScaler) Scale() ([]float64, error) {
	if err := s.state.RequireFitted("StandardScaler", "Scale"); err != nil {
		return nil, err
	}
	return append([]float64(nil), s.scale...), nil
}

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		ParamWithMean: s.withMean,
		ParamWithStd:  s.withStd,
	}
}

// SetParams はパラメータを設定する。次の Fit から反映される。
func (s *StandardScaler) SetParams(params map[string]interface{}) error {
	if err := model.CheckParamNames(params, ParamWithMean, ParamWithStd); err != nil {
		return err
	}
	withMean, hasMean, err := model.BoolParam(params, ParamWithMean)
	if err != nil {
		return err
	}
	withStd, hasStd, err := model.BoolParam(params, ParamWithStd)
	if err != nil {
		return err
	}
	if hasMean {
		s.withMean = withMean
	}
	if hasStd {
		s.withStd = withStd
	}
	return nil
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.state.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.withMean, s.withStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.withMean, s.withStd, s.state.NFeatures)
}
