package model

import (
	"io"

	"gonum.org/v1/gonum/mat"
)

// Fitter は教師なしで学習可能な推定器のインターフェース
type Fitter interface {
	// Fit はサンプル行列 (n_samples × n_features) から推定器を学習する
	Fit(X mat.Matrix) error
}

// Scorer はテストデータに対するスコア（対数尤度など）を計算できる推定器
type Scorer interface {
	Score(X mat.Matrix) (float64, error)
}

// ParameterGetter はハイパーパラメータを名前付きで公開する推定器
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// ParameterSetter は名前付きハイパーパラメータの変更を許す推定器。
// 未知の名前や型の合わない値にはValidationErrorを返す。
type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}

// Persistable は学習済み状態を保存・復元できる推定器
type Persistable interface {
	Save(w io.Writer) error
	Load(r io.Reader) error
}
