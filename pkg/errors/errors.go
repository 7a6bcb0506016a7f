// Package errors はscicov全体のエラーハンドリングと警告システムを提供します。
// scikit-learn / SciPy の警告・例外体系にならい、構造化されたエラー情報を返します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("scicov-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため pkg/log から注入される）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定し、以前のハンドラを返します。
// SVDのフォールバックや単一サンプル警告などの処理方法を制御できます。
//
// 例:
//
//	prev := errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
//	defer errors.SetWarningHandler(prev)
func SetWarningHandler(handler func(w error)) (previous func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	previous = warningHandler
	warningHandler = handler
	return previous
}

// SetZerologWarnFunc はzerolog警告関数を設定します。nilを渡すと解除されます。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されていれば構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// ConvergenceWarning は数値分解が収束せず、代替アルゴリズムに切り替えた場合の警告です。
type ConvergenceWarning struct {
	Algorithm string // 失敗したアルゴリズム
	Fallback  string // 代わりに使用するアルゴリズム
	Message   string
}

func (w *ConvergenceWarning) Error() string {
	if w.Fallback == "" {
		return fmt.Sprintf("%s did not converge: %s", w.Algorithm, w.Message)
	}
	return fmt.Sprintf("%s did not converge (%s), attempting to use %s instead", w.Algorithm, w.Message, w.Fallback)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Str("fallback", w.Fallback).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning は新しいConvergenceWarningを作成します。
func NewConvergenceWarning(algorithm, fallback, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Fallback: fallback, Message: message}
}

// SingleSampleWarning は1サンプルしかないデータから共分散を推定した場合の警告です。
// 計算は続行されますが、結果は退化した（ランク0の）行列になります。
type SingleSampleWarning struct {
	Op        string
	NFeatures int
}

func (w *SingleSampleWarning) Error() string {
	return fmt.Sprintf("%s: only one sample available (n_features=%d). You may want to reshape your data array", w.Op, w.NFeatures)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *SingleSampleWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("operation", w.Op).
		Int("n_features", w.NFeatures).
		Str("type", "SingleSampleWarning")
}

// NewSingleSampleWarning は新しいSingleSampleWarningを作成します。
func NewSingleSampleWarning(op string, nFeatures int) *SingleSampleWarning {
	return &SingleSampleWarning{Op: op, NFeatures: nFeatures}
}

// StabilityWarning は累積和などの結果が検算値と一致しない場合の警告です。
type StabilityWarning struct {
	Op       string
	Got      float64
	Expected float64
}

func (w *StabilityWarning) Error() string {
	return fmt.Sprintf("%s was found to be unstable: its last element (%g) does not correspond to sum (%g)", w.Op, w.Got, w.Expected)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *StabilityWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("operation", w.Op).
		Float64("got", w.Got).
		Float64("expected", w.Expected).
		Str("type", "StabilityWarning")
}

// NewStabilityWarning は新しいStabilityWarningを作成します。
func NewStabilityWarning(op string, got, expected float64) *StabilityWarning {
	return &StabilityWarning{Op: op, Got: got, Expected: expected}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError は推定器が未学習の状態で `Score` や `Precision` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("scicov: %s: this estimator is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0: 行, 1: 列（特徴量）
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("scicov: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError はパラメータ名や値の検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("scicov: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は引数の値が不適切な場合のエラーです。
// 例えば、未対応のノルム名を指定した場合など。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("scicov: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// RankError は評価するランクがスペクトルの長さを超えている場合のエラーです。
type RankError struct {
	Rank int
	Max  int
}

func (e *RankError) Error() string {
	return fmt.Sprintf("scicov: the tested rank (%d) must be in [0, %d], the rank of the dataset", e.Rank, e.Max)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *RankError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("rank", e.Rank).
		Int("max", e.Max).
		Str("type", "RankError")
}

// NewRankError は新しいRankErrorを作成し、スタックトレースを付与します。
func NewRankError(rank, max int) error {
	return errors.WithStack(&RankError{Rank: rank, Max: max})
}

// LinAlgError は固有値分解や特異値分解が収束しなかった場合のエラーです。
type LinAlgError struct {
	Op     string
	Reason string
}

func (e *LinAlgError) Error() string {
	return fmt.Sprintf("scicov: %s: %s", e.Op, e.Reason)
}

// NewLinAlgError は新しいLinAlgErrorを作成し、スタックトレースを付与します。
func NewLinAlgError(op, reason string) error {
	return errors.WithStack(&LinAlgError{Op: op, Reason: reason})
}

// ModelError は推定器に関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scicov: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("scicov: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	数値計算のエラー型
//
// ===========================================================================

// NumericalInstabilityError は入力や中間結果にNaN・Infが含まれていた場合のエラーです。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "EmpiricalCovariance.Fit"）
	Values    []float64 // 問題のある値（最大10個）
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("scicov: non-finite values detected in %s: [%s]", e.Operation, valStr)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64) error {
	return errors.WithStack(&NumericalInstabilityError{Operation: operation, Values: values})
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrNotSquare は正方行列が必要な操作に長方形行列が渡された場合のエラーです。
	ErrNotSquare = New("matrix is not square")
)
