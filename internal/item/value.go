package item

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ToText renders a value as text. Integral floats render without a
// fractional part so that 2.0 and 2 read the same.
func ToText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// ToNumber converts a value to a float64. Numeric strings are parsed;
// booleans count as 1 and 0. The second result is false for values that
// have no numeric reading.
func ToNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, !math.IsNaN(x)
	case float32:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// IsIntegral reports whether v holds a whole number.
func IsIntegral(v any) bool {
	switch x := v.(type) {
	case int, int64, int32, uint64, bool:
		return true
	case float64:
		return x == math.Trunc(x) && !math.IsInf(x, 0)
	case float32:
		return float64(x) == math.Trunc(float64(x))
	case string:
		_, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return err == nil
	default:
		return false
	}
}

// ToInteger converts a whole-number value to an int64 without going
// through float64 for integer inputs. Values outside the int64 range and
// values with a fractional part are errors.
func ToInteger(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("value %d is out of integer range", x)
		}
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case float64:
		return floatToInteger(x)
	case float32:
		return floatToInteger(float64(x))
	case string:
		s := strings.TrimSpace(x)
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return n, nil
		}
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("value %s is out of integer range", s)
		}
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, fmt.Errorf("value %q is not an integer", x)
		}
		return floatToInteger(f)
	default:
		return 0, fmt.Errorf("value %v is not an integer", v)
	}
}

// floatToInteger accepts whole floats inside the int64 range. 2^63 itself
// is representable as a float64 but not as an int64.
func floatToInteger(f float64) (int64, error) {
	if math.IsNaN(f) || f != math.Trunc(f) {
		return 0, fmt.Errorf("value %v is not an integer", f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("value %v is out of integer range", f)
	}
	return int64(f), nil
}

// Coerce converts a decoded value to the canonical Go representation of t:
// int64 for integer, float64 for decimal, bool for boolean, string for
// string, text and date.
func Coerce(t FieldType, v any) (any, error) {
	switch t {
	case TypeString, TypeText, TypeDate:
		return ToText(v), nil
	case TypeInteger:
		return ToInteger(v)
	case TypeDecimal:
		f, ok := ToNumber(v)
		if !ok {
			return nil, fmt.Errorf("value %v is not a number", v)
		}
		return f, nil
	case TypeBoolean:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(x))
			if err != nil {
				return nil, fmt.Errorf("value %q is not a boolean", x)
			}
			return b, nil
		default:
			f, ok := ToNumber(v)
			if !ok {
				return nil, fmt.Errorf("value %v is not a boolean", v)
			}
			return f != 0, nil
		}
	default:
		return nil, fmt.Errorf("unknown field type %q", t)
	}
}
