package model

import (
	"fmt"
	"math"

	"github.com/iancoleman/strcase"

	"github.com/YuminosukeSato/pml/pkg/errors"
)

// ParamKey normalises a hyperparameter name to snake_case so that
// "MaxIter", "maxIter" and "max_iter" address the same parameter.
// A single upper-case letter such as "C" is kept as is.
func ParamKey(name string) string {
	if len(name) == 1 {
		return name
	}
	return strcase.ToSnake(name)
}

// Float coerces a numeric grid value to float64.
func Float(name string, v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	default:
		return 0, errors.NewValidationError(name, "expected a number", v)
	}
}

// Int coerces a grid value to int. Floats must be whole numbers.
func Int(name string, v interface{}) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case int32:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, errors.NewValidationError(name, "expected an integer", v)
		}
		return int(x), nil
	default:
		return 0, errors.NewValidationError(name, "expected an integer", v)
	}
}

// Bool coerces a grid value to bool.
func Bool(name string, v interface{}) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, errors.NewValidationError(name, "expected a bool", v)
	}
	return b, nil
}

// String coerces a grid value to string.
func String(name string, v interface{}) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	default:
		return "", errors.NewValidationError(name, "expected a string", v)
	}
}

// UnknownParam is returned by SetParams for names the estimator lacks.
func UnknownParam(model, name string) error {
	return errors.NewValidationError(name, "unknown parameter for "+model, nil)
}
