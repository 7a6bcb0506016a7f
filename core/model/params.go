package model

import (
	"github.com/YuminosukeSato/scicov/pkg/errors"
)

// BoolParam はparamsからbool値を取り出す。キーが無ければok=falseを返す。
// 値の型がboolでなければValidationErrorを返す。
func BoolParam(params map[string]interface{}, name string) (value, ok bool, err error) {
	raw, exists := params[name]
	if !exists {
		return false, false, nil
	}
	v, isBool := raw.(bool)
	if !isBool {
		return false, false, errors.NewValidationError(name, "must be a bool", raw)
	}
	return v, true, nil
}

// CheckParamNames は params に allowed 以外のキーが無いことを確認する
func CheckParamNames(params map[string]interface{}, allowed ...string) error {
	for name, value := range params {
		known := false
		for _, a := range allowed {
			if name == a {
				known = true
				break
			}
		}
		if !known {
			return errors.NewValidationError(name, "unknown parameter", value)
		}
	}
	return nil
}
