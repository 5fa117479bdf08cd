package toolkit

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alejandrodnm/polytoolkit/internal/domain"
)

// Los parámetros llegan desde el agente como map[string]any decodificado de
// JSON, así que un entero puede venir como int, float64, json.Number o string.
// Un parámetro ausente (o nil) toma el default del catálogo.

func stringParam(params map[string]any, name, def string) (string, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return def, nil
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	}
	return "", &domain.ValidationError{Field: name, Reason: fmt.Sprintf("expected string, got %T", v)}
}

func intParam(params map[string]any, name string, def int) (int, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return def, nil
	}

	bad := &domain.ValidationError{Field: name, Reason: fmt.Sprintf("expected integer, got %v", v)}

	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		return floatToInt(n, name, bad)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil && !errors.Is(ferr, strconv.ErrRange) {
				return 0, bad
			}
			return floatToInt(f, name, bad)
		}
		return floatToInt(float64(i), name, bad)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if errors.Is(err, strconv.ErrRange) {
			return 0, outOfRange(name, v)
		}
		if err != nil {
			return 0, bad
		}
		return i, nil
	}
	return 0, bad
}

// floatToInt acepta solo enteros exactos representables como int.
// math.MaxInt redondea a 2^63 como float64, por eso el límite superior es excluyente.
func floatToInt(f float64, name string, bad error) (int, error) {
	if math.IsNaN(f) || f != math.Trunc(f) {
		return 0, bad
	}
	if f >= math.MaxInt || f < math.MinInt {
		return 0, outOfRange(name, f)
	}
	return int(f), nil
}

func outOfRange(name string, v any) error {
	return &domain.ValidationError{Field: name, Reason: fmt.Sprintf("out of range: %v", v)}
}

func floatParam(params map[string]any, name string, def float64) (float64, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return def, nil
	}

	bad := &domain.ValidationError{Field: name, Reason: fmt.Sprintf("expected number, got %v", v)}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, bad
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, bad
		}
		f = parsed
	default:
		return 0, bad
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, bad
	}
	return f, nil
}
