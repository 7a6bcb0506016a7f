package covariance

import (
	"io"
	"math"
	"time"

	"github.com/YuminosukeSato/scicov/core/model"
	"github.com/YuminosukeSato/scicov/core/parallel"
	"github.com/YuminosukeSato/scicov/linalg"
	"github.com/YuminosukeSato/scicov/pkg/errors"
	"github.com/YuminosukeSato/scicov/pkg/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const modelName = "EmpiricalCovariance"

// Parameter names accepted by GetParams and SetParams.
const (
	ParamStorePrecision = "store_precision"
	ParamAssumeCentered = "assume_centered"
)

// mahalanobisParallelThreshold 以下の行数では逐次処理を使用する
const mahalanobisParallelThreshold = 1000

// EmpiricalCovarianceMatrix は最尤推定による共分散行列を計算する。
//
// assumeCentered が true の場合は XᵀX / n、false の場合は列平均で中心化した
// 上で n で割った共分散を返す（不偏推定の n-1 ではない）。
// サンプルが1つしかない場合は SingleSampleWarning を発行して処理を続ける。
func EmpiricalCovarianceMatrix(X mat.Matrix, assumeCentered bool) (_ *mat.SymDense, err error) {
	const op = "covariance.EmpiricalCovarianceMatrix"
	defer errors.Recover(&err, op)

	n, p := X.Dims()
	if n == 0 || p == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if err := errors.CheckMatrix(op, X); err != nil {
		return nil, err
	}
	if n == 1 {
		errors.Warn(errors.NewSingleSampleWarning(op, p))
	}

	cov := mat.NewSymDense(p, nil)
	if assumeCentered {
		cov.SymOuterK(1/float64(n), X.T())
		return cov, nil
	}
	if n == 1 {
		// 中心化すると全要素が0になる
		return cov, nil
	}
	stat.CovarianceMatrix(cov, X, nil)
	cov.ScaleSym(float64(n-1)/float64(n), cov)
	return cov, nil
}

var (
	_ model.Fitter          = (*EmpiricalCovariance)(nil)
	_ model.Scorer          = (*EmpiricalCovariance)(nil)
	_ model.ParameterGetter = (*EmpiricalCovariance)(nil)
	_ model.ParameterSetter = (*EmpiricalCovariance)(nil)
	_ model.Persistable     = (*EmpiricalCovariance)(nil)
)

// EmpiricalCovariance は最尤共分散推定器
//
// 学習後は位置（平均ベクトル）、共分散行列、および store_precision が有効な
// 場合は精度行列（共分散の擬似逆行列）を保持する。
type EmpiricalCovariance struct {
	state *model.StateManager

	storePrecision bool
	assumeCentered bool
	logger         log.Logger

	location   []float64
	covariance *mat.SymDense
	precision  *mat.SymDense
}

// NewEmpiricalCovariance は新しい推定器を作成する。
// デフォルトは store_precision=true, assume_centered=false。
func NewEmpiricalCovariance(opts ...Option) *EmpiricalCovariance {
	e := &EmpiricalCovariance{
		state:          model.NewStateManager(),
		storePrecision: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.GetLoggerWithName("covariance").With(log.ModelNameKey, modelName)
	}
	return e
}

// Fit はサンプル行列 X (n_samples × n_features) から位置と共分散を推定する。
// 再学習すると以前の結果は上書きされる。
func (e *EmpiricalCovariance) Fit(X mat.Matrix) (err error) {
	defer errors.Recover(&err, modelName+".Fit")
	start := time.Now()

	n, p := X.Dims()
	cov, err := EmpiricalCovarianceMatrix(X, e.assumeCentered)
	if err != nil {
		return err
	}

	location := make([]float64, p)
	if !e.assumeCentered {
		col := make([]float64, n)
		for j := 0; j < p; j++ {
			mat.Col(col, j, X)
			location[j] = stat.Mean(col, nil)
		}
	}

	var precision *mat.SymDense
	if e.storePrecision {
		precision, err = linalg.Pinvh(cov, linalg.DefaultRtol)
		if err != nil {
			return err
		}
	}

	e.location = location
	e.covariance = cov
	e.precision = precision
	e.state.SetFitted(n, p)

	e.logger.Debug("fit completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// IsFitted は学習済みかどうかを返す
func (e *EmpiricalCovariance) IsFitted() bool {
	return e.state.IsFitted()
}

// Location は推定された平均ベクトルのコピーを返す
func (e *EmpiricalCovariance) Location() ([]float64, error) {
	if err := e.state.RequireFitted(modelName, "Location"); err != nil {
		return nil, err
	}
	out := make([]float64, len(e.location))
	copy(out, e.location)
	return out, nil
}

// Covariance は推定された共分散行列のコピーを返す
func (e *EmpiricalCovariance) Covariance() (*mat.SymDense, error) {
	if err := e.state.RequireFitted(modelName, "Covariance"); err != nil {
		return nil, err
	}
	return copySym(e.covariance), nil
}

// Precision は精度行列（共分散の擬似逆行列）を返す。
// キャッシュが無い場合はその場で計算する。
func (e *EmpiricalCovariance) Precision() (*mat.SymDense, error) {
	if err := e.state.RequireFitted(modelName, "Precision"); err != nil {
		return nil, err
	}
	if e.precision != nil {
		return copySym(e.precision), nil
	}
	return linalg.Pinvh(e.covariance, linalg.DefaultRtol)
}

// Score はテストデータの推定ガウス分布の下での平均対数尤度を返す。
// テストデータは学習時の位置で中心化される。
func (e *EmpiricalCovariance) Score(X mat.Matrix) (_ float64, err error) {
	defer errors.Recover(&err, modelName+".Score")

	_, p := X.Dims()
	if err := e.state.RequireFeatures(modelName, "Score", p); err != nil {
		return 0, err
	}

	testCov, err := EmpiricalCovarianceMatrix(e.center(X), true)
	if err != nil {
		return 0, err
	}
	precision, err := e.Precision()
	if err != nil {
		return 0, err
	}
	ll, err := LogLikelihood(testCov, precision)
	if err != nil {
		return 0, err
	}

	e.logger.Debug("score computed",
		log.OperationKey, log.OperationScore,
		log.ScoreKey, ll,
	)
	return ll, nil
}

// ErrorNorm は comp と推定共分散の差のノルムを返す。
//
// scaling が true の場合は二乗ノルムを特徴量数で割る。squared が false の場合は
// 平方根を返す。
func (e *EmpiricalCovariance) ErrorNorm(comp mat.Matrix, norm Norm, scaling, squared bool) (_ float64, err error) {
	const op = modelName + ".ErrorNorm"
	defer errors.Recover(&err, op)

	if err := e.state.RequireFitted(modelName, "ErrorNorm"); err != nil {
		return 0, err
	}
	p := e.state.NFeatures
	r, c := comp.Dims()
	if r != p {
		return 0, errors.NewDimensionError(op, p, r, 0)
	}
	if c != p {
		return 0, errors.NewDimensionError(op, p, c, 1)
	}

	var diff mat.Dense
	diff.Sub(comp, e.covariance)

	var sq float64
	switch norm {
	case NormFrobenius:
		for i := 0; i < p; i++ {
			for j := 0; j < p; j++ {
				v := diff.At(i, j)
				sq += v * v
			}
		}
	case NormSpectral:
		var gram mat.SymDense
		gram.SymOuterK(1, diff.T())
		vals, err := linalg.Eigvalsh(&gram)
		if err != nil {
			return 0, err
		}
		sq = vals[len(vals)-1]
		if sq < 0 {
			sq = 0
		}
	default:
		return 0, errors.NewValueError(op, "only spectral and frobenius norms are implemented, got "+norm.String())
	}

	if scaling {
		sq /= float64(p)
	}

	e.logger.Debug("error norm computed",
		log.OperationKey, log.OperationErrorNorm,
		log.NormKey, norm.String(),
	)
	if squared {
		return sq, nil
	}
	return math.Sqrt(sq), nil
}

// Mahalanobis は各観測の二乗マハラノビス距離を返す
func (e *EmpiricalCovariance) Mahalanobis(obs mat.Matrix) (_ []float64, err error) {
	defer errors.Recover(&err, modelName+".Mahalanobis")

	n, p := obs.Dims()
	if err := e.state.RequireFeatures(modelName, "Mahalanobis", p); err != nil {
		return nil, err
	}
	precision, err := e.Precision()
	if err != nil {
		return nil, err
	}

	centered := e.center(obs)
	dist := make([]float64, n)
	parallel.ParallelizeWithThreshold(n, mahalanobisParallelThreshold, func(start, end int) {
		row := mat.NewVecDense(p, nil)
		var pr mat.VecDense
		for i := start; i < end; i++ {
			row.CopyVec(centered.RowView(i))
			pr.MulVec(precision, row)
			dist[i] = mat.Dot(&pr, row)
		}
	})

	e.logger.Debug("mahalanobis distances computed",
		log.OperationKey, log.OperationMahalanobis,
		log.SamplesKey, n,
	)
	return dist, nil
}

// center は X から学習時の位置を引いた行列を返す
func (e *EmpiricalCovariance) center(X mat.Matrix) *mat.Dense {
	n, p := X.Dims()
	out := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			out.Set(i, j, X.At(i, j)-e.location[j])
		}
	}
	return out
}

// GetParams はハイパーパラメータを返す
func (e *EmpiricalCovariance) GetParams() map[string]interface{} {
	return map[string]interface{}{
		ParamStorePrecision: e.storePrecision,
		ParamAssumeCentered: e.assumeCentered,
	}
}

// SetParams はハイパーパラメータを設定する。
// 未知の名前や bool 以外の値があれば何も変更せずに ValidationError を返す。
// 学習済みの状態には影響しない。次の Fit から反映される。
func (e *EmpiricalCovariance) SetParams(params map[string]interface{}) error {
	if err := model.CheckParamNames(params, ParamStorePrecision, ParamAssumeCentered); err != nil {
		return err
	}
	store, hasStore, err := model.BoolParam(params, ParamStorePrecision)
	if err != nil {
		return err
	}
	centered, hasCentered, err := model.BoolParam(params, ParamAssumeCentered)
	if err != nil {
		return err
	}
	if hasStore {
		e.storePrecision = store
	}
	if hasCentered {
		e.assumeCentered = centered
	}
	return nil
}

// snapshot はgobで保存する推定器の状態
type snapshot struct {
	State          model.StateManager
	StorePrecision bool
	AssumeCentered bool
	Location       []float64
	Covariance     []float64
	Precision      []float64
}

// Save は学習済みの推定器をgob形式で書き出す
func (e *EmpiricalCovariance) Save(w io.Writer) error {
	if err := e.state.RequireFitted(modelName, "Save"); err != nil {
		return err
	}
	s := snapshot{
		State:          *e.state,
		StorePrecision: e.storePrecision,
		AssumeCentered: e.assumeCentered,
		Location:       e.location,
		Covariance:     flatten(e.covariance),
	}
	if e.precision != nil {
		s.Precision = flatten(e.precision)
	}
	return model.EncodeGob(w, s)
}

// Load はSaveで書き出した推定器を読み込み、現在の状態を置き換える
func (e *EmpiricalCovariance) Load(r io.Reader) (err error) {
	defer errors.Recover(&err, modelName+".Load")

	var s snapshot
	if err := model.DecodeGob(r, &s); err != nil {
		return err
	}
	p := s.State.NFeatures
	if !s.State.Fitted || p < 1 || len(s.Location) != p || len(s.Covariance) != p*p {
		return errors.NewModelError(modelName+".Load", "corrupt model", errors.New("inconsistent saved state"))
	}
	if s.Precision != nil && len(s.Precision) != p*p {
		return errors.NewModelError(modelName+".Load", "corrupt model", errors.New("inconsistent precision size"))
	}

	state := s.State
	e.state = &state
	e.storePrecision = s.StorePrecision
	e.assumeCentered = s.AssumeCentered
	e.location = s.Location
	e.covariance = mat.NewSymDense(p, s.Covariance)
	e.precision = nil
	if s.Precision != nil {
		e.precision = mat.NewSymDense(p, s.Precision)
	}
	return nil
}

func copySym(a *mat.SymDense) *mat.SymDense {
	out := mat.NewSymDense(a.SymmetricDim(), nil)
	out.CopySym(a)
	return out
}

func flatten(a *mat.SymDense) []float64 {
	n := a.SymmetricDim()
	out := make([]float64, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out = append(out, a.At(i, j))
		}
	}
	return out
}
