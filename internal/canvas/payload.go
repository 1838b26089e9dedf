package canvas

import (
	"math"
	"strconv"
)

// Helpers for scraping the loosely typed JSON payloads Canvas returns.
// encoding/json decodes numbers as float64, but Canvas also sends ids
// as digit strings in some nested structures.

// StringOf returns v as a string, or "" when it is not one.
func StringOf(v any) string {
	s, _ := v.(string)
	return s
}

// IntOf coerces an integral JSON number or a digit string to int.
func IntOf(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) {
			return int(t), true
		}
	case int:
		return t, true
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n, true
		}
	}
	return 0, false
}

// Int64Of is IntOf for 64-bit values such as byte sizes.
func Int64Of(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) {
			return int64(t), true
		}
	case int64:
		return t, true
	case int:
		return int64(t), true
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// FloatOf coerces a JSON number to float64.
func FloatOf(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	}
	return 0, false
}
