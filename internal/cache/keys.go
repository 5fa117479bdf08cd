package cache

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// KeyFor deriva la clave de cache de una operación y sus parámetros.
// Es determinista e independiente del orden de los maps; los números se
// normalizan, así que limit=5 (int) y limit=5.0 (float64) dan la misma clave.
// Claves y strings se escapan como en una query string, así que un valor con
// '&', '=', ',' o llaves no puede hacerse pasar por otro parámetro.
//
//	KeyFor("trending", map[string]any{"limit": 5, "by": "volume"}) == "trending?by=volume&limit=5"
func KeyFor(operation string, params map[string]any) string {
	if len(params) == 0 {
		return operation
	}
	return operation + "?" + canonicalPairs(params, "&")
}

func canonicalPairs(m map[string]any, sep string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(canonical(m[k]))
	}
	return sb.String()
}

// canonical serializa un valor de parámetro de forma estable.
func canonical(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return url.QueryEscape(t)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return formatFloat(f)
		}
		return url.QueryEscape(t.String())
	case map[string]any:
		return "{" + canonicalPairs(t, ",") + "}"
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = canonical(item)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case fmt.Stringer:
		return url.QueryEscape(t.String())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return formatFloat(rv.Float())
	case reflect.String:
		return url.QueryEscape(rv.String())
	}
	return url.QueryEscape(fmt.Sprint(v))
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
