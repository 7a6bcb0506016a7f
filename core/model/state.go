// Package model は推定器の共通基盤（学習状態、パラメータ、永続化）を提供する。
package model

import (
	"github.com/YuminosukeSato/scicov/pkg/errors"
)

// StateManager は推定器の学習状態と学習時のデータ形状を保持する。
//
// ロックは持たない。1つの推定器を複数のgoroutineから同時にFitする場合の
// 排他制御は呼び出し側の責任とする。
type StateManager struct {
	Fitted    bool // gobエンコードのため公開
	NFeatures int
	NSamples  int
}

// NewStateManager は未学習状態のStateManagerを作成する
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted は学習済みかどうかを返す
func (s *StateManager) IsFitted() bool {
	return s.Fitted
}

// SetFitted は学習済み状態に設定し、学習データの形状を記録する
func (s *StateManager) SetFitted(nSamples, nFeatures int) {
	s.Fitted = true
	s.NSamples = nSamples
	s.NFeatures = nFeatures
}

// Reset は未学習状態に戻す
func (s *StateManager) Reset() {
	*s = StateManager{}
}

// RequireFitted は未学習の場合にNotFittedErrorを返す
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.Fitted {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}

// RequireFeatures は学習済みかつ特徴量数が一致することを確認する
func (s *StateManager) RequireFeatures(modelName, method string, nFeatures int) error {
	if err := s.RequireFitted(modelName, method); err != nil {
		return err
	}
	if nFeatures != s.NFeatures {
		return errors.NewDimensionError(modelName+"."+method, s.NFeatures, nFeatures, 1)
	}
	return nil
}
