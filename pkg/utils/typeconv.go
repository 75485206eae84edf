package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateTimeLayouts are the layouts accepted by ConvertDateTime, in order.
var DateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02",
}

// ConvertDateTime parses val into a UTC time. Strings without a zone are UTC.
func ConvertDateTime(val interface{}) (time.Time, error) {
	switch v := val.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		s := strings.TrimSpace(v)
		for _, f := range DateTimeLayouts {
			if t, err := time.Parse(f, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unable to parse datetime: %q", v)
	case []byte:
		return ConvertDateTime(string(v))
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to datetime", val)
	}
}

// ConvertToInt64 accepts integer, integral float and numeric string values.
// "10.0" is accepted because CSV writers sometimes render ints that way.
func ConvertToInt64(val interface{}) (int64, error) {
	switch v := val.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("non-integral value %v", v)
		}
		if v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, fmt.Errorf("value %v overflows int64", v)
		}
		return int64(v), nil
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to int", v)
		}
		return ConvertToInt64(f)
	case []byte:
		return ConvertToInt64(string(v))
	default:
		return 0, fmt.Errorf("cannot convert %T to int", val)
	}
}

func ConvertToFloat(val interface{}) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to float", v)
		}
		return f, nil
	case []byte:
		return ConvertToFloat(string(v))
	default:
		return 0, fmt.Errorf("cannot convert %T to float", val)
	}
}

// FormatFloat renders f without trailing zeros ("1600", "9.99").
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
