// Package defaultns implements the "default" namespace (A7): arithmetic,
// comparison, boolean, and identity primitives, resolved before any
// explicitly imported namespace (spec §4.3). Grounded on the teacher's
// decorator-registration style (core/decorator/registry.go), generalized
// from decorator functions to plain Callables.
package defaultns

import (
	"github.com/voxlogica-project/voxlogica-core/internal/registry"
	"github.com/voxlogica-project/voxlogica-core/internal/vlerr"
)

// Register builds the "default" namespace and registers it with reg, along
// with the positional-to-semantic argument-name mapping for every binary
// operator (spec §4.3).
func Register(reg *registry.Registry) error {
	ns := registry.StaticNamespace{
		"+":           binaryArith(func(a, b float64) float64 { return a + b }),
		"-":           binaryArith(func(a, b float64) float64 { return a - b }),
		"*":           binaryArith(func(a, b float64) float64 { return a * b }),
		"/":           binaryArithErr(divide),
		"addition":    binaryArith(func(a, b float64) float64 { return a + b }),
		"subtraction": binaryArith(func(a, b float64) float64 { return a - b }),

		"==": binaryCompare(func(a, b float64) bool { return a == b }),
		"!=": binaryCompare(func(a, b float64) bool { return a != b }),
		"<":  binaryCompare(func(a, b float64) bool { return a < b }),
		"<=": binaryCompare(func(a, b float64) bool { return a <= b }),
		">":  binaryCompare(func(a, b float64) bool { return a > b }),
		">=": binaryCompare(func(a, b float64) bool { return a >= b }),

		"and": binaryBool(func(a, b bool) bool { return a && b }),
		"or":  binaryBool(func(a, b bool) bool { return a || b }),
		"not": unaryNot,

		"id":    identity,
		"range": rangeBag,
	}

	if err := reg.RegisterNamespace("default", ns); err != nil {
		return err
	}

	for _, op := range []string{"+", "-", "*", "/", "addition", "subtraction", "==", "!=", "<", "<=", ">", ">="} {
		reg.RegisterArgNames(op, "left", "right")
	}
	reg.RegisterArgNames("and", "left", "right")
	reg.RegisterArgNames("or", "left", "right")
	reg.RegisterArgNames("not", "value")
	reg.RegisterArgNames("id", "value")
	reg.RegisterArgNames("range", "from", "to")
	return nil
}

func binaryArith(f func(a, b float64) float64) registry.Callable {
	return func(args map[string]registry.Value) (registry.Value, error) {
		a, b, err := twoFloats(args)
		if err != nil {
			return nil, err
		}
		return f(a, b), nil
	}
}

func binaryArithErr(f func(a, b float64) (float64, error)) registry.Callable {
	return func(args map[string]registry.Value) (registry.Value, error) {
		a, b, err := twoFloats(args)
		if err != nil {
			return nil, err
		}
		return f(a, b)
	}
}

func divide(a, b float64) (float64, error) {
	if b == 0 {
		return 0, vlerr.New(vlerr.PrimitiveFailure, "division by zero")
	}
	return a / b, nil
}

func binaryCompare(f func(a, b float64) bool) registry.Callable {
	return func(args map[string]registry.Value) (registry.Value, error) {
		a, b, err := twoFloats(args)
		if err != nil {
			return nil, err
		}
		return f(a, b), nil
	}
}

func binaryBool(f func(a, b bool) bool) registry.Callable {
	return func(args map[string]registry.Value) (registry.Value, error) {
		a, err := toBool(args["left"])
		if err != nil {
			return nil, err
		}
		b, err := toBool(args["right"])
		if err != nil {
			return nil, err
		}
		return f(a, b), nil
	}
}

func unaryNot(args map[string]registry.Value) (registry.Value, error) {
	v, err := toBool(args["value"])
	if err != nil {
		return nil, err
	}
	return !v, nil
}

func identity(args map[string]registry.Value) (registry.Value, error) {
	return args["value"], nil
}

func rangeBag(args map[string]registry.Value) (registry.Value, error) {
	from, err := toFloat(args["from"])
	if err != nil {
		return nil, err
	}
	to, err := toFloat(args["to"])
	if err != nil {
		return nil, err
	}
	var items []registry.Value
	for i := int64(from); i < int64(to); i++ {
		items = append(items, float64(i))
	}
	return registry.Bag{Items: items}, nil
}

func twoFloats(args map[string]registry.Value) (float64, float64, error) {
	a, err := toFloat(args["left"])
	if err != nil {
		return 0, 0, err
	}
	b, err := toFloat(args["right"])
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func toFloat(v registry.Value) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, vlerr.New(vlerr.PrimitiveFailure, "expected a number, got %T", v)
	}
}

func toBool(v registry.Value) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, vlerr.New(vlerr.PrimitiveFailure, "expected a boolean, got %T", v)
	}
	return b, nil
}
