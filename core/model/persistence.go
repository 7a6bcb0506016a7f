package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/scicov/pkg/errors"
)

// SaveModel は推定器をgob形式でファイルに保存する
//
// 使用例:
//
//	est := covariance.NewEmpiricalCovariance()
//	// ... 学習 ...
//	err := model.SaveModel(est, "cov.gob")
func SaveModel(m Persistable, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", filename)
	}
	defer file.Close()
	return m.Save(file)
}

// LoadModel はファイルから推定器を読み込む
func LoadModel(m Persistable, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", filename)
	}
	defer file.Close()
	return m.Load(file)
}

// EncodeGob は値をio.Writerにgobで書き出す
func EncodeGob(w io.Writer, v interface{}) error {
	if err := gob.NewEncoder(w).Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// DecodeGob はio.Readerからgobで値を読み込む
func DecodeGob(r io.Reader, v interface{}) error {
	if err := gob.NewDecoder(r).Decode(v); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
