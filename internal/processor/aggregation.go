package processor

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/indexprep/internal/item"
)

// AggregationType names a way of combining field values.
type AggregationType string

const (
	AggregationUnion  AggregationType = "union"
	AggregationConcat AggregationType = "concat"
	AggregationSum    AggregationType = "sum"
	AggregationCount  AggregationType = "count"
	AggregationMax    AggregationType = "max"
	AggregationMin    AggregationType = "min"
	AggregationFirst  AggregationType = "first"
)

// ConcatSeparator joins concatenated values.
const ConcatSeparator = "\n\n"

// aggregationFunc combines a non-empty list of values.
type aggregationFunc func(values []any) []any

type aggregationInfo struct {
	label    string
	dataType item.FieldType
	fn       aggregationFunc
}

var aggregations = map[AggregationType]aggregationInfo{
	AggregationUnion:  {label: "Union", dataType: item.TypeString, fn: aggregateUnion},
	AggregationConcat: {label: "Concatenation", dataType: item.TypeString, fn: aggregateConcat},
	AggregationSum:    {label: "Sum", dataType: item.TypeInteger, fn: aggregateSum},
	AggregationCount:  {label: "Count", dataType: item.TypeInteger, fn: aggregateCount},
	AggregationMax:    {label: "Maximum", dataType: item.TypeInteger, fn: aggregateMax},
	AggregationMin:    {label: "Minimum", dataType: item.TypeInteger, fn: aggregateMin},
	AggregationFirst:  {label: "First", dataType: item.TypeString, fn: aggregateFirst},
}

// aggregationOrder is the presentation order of aggregation types.
var aggregationOrder = []AggregationType{
	AggregationUnion,
	AggregationConcat,
	AggregationSum,
	AggregationCount,
	AggregationMax,
	AggregationMin,
	AggregationFirst,
}

// aliases maps long type names onto their identifiers.
var aliases = map[string]AggregationType{
	"concatenation": AggregationConcat,
	"maximum":       AggregationMax,
	"minimum":       AggregationMin,
}

// AggregationTypes returns every aggregation type in presentation order.
func AggregationTypes() []AggregationType {
	out := make([]AggregationType, len(aggregationOrder))
	copy(out, aggregationOrder)
	return out
}

// ParseAggregationType resolves a type name, accepting the long forms
// "concatenation", "maximum" and "minimum".
func ParseAggregationType(s string) (AggregationType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if t, ok := aliases[s]; ok {
		return t, nil
	}
	t := AggregationType(s)
	if _, ok := aggregations[t]; !ok {
		return "", fmt.Errorf("unknown aggregation type %q", s)
	}
	return t, nil
}

// IsValid reports whether t is a known aggregation type.
func (t AggregationType) IsValid() bool {
	_, ok := aggregations[t]
	return ok
}

// Label returns the display name of the type, e.g. "Concatenation".
func (t AggregationType) Label() string {
	return aggregations[t].label
}

// DataType returns the type of the aggregated field.
func (t AggregationType) DataType() item.FieldType {
	return aggregations[t].dataType
}

func aggregateUnion(values []any) []any {
	out := make([]any, len(values))
	copy(out, values)
	return out
}

func aggregateConcat(values []any) []any {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = item.ToText(v)
	}
	return []any{strings.Join(parts, ConcatSeparator)}
}

// aggregateSum adds the values. Whole numbers are added as int64 so large
// integers keep their precision; the sum switches to float64 once a
// fractional value appears or the int64 sum would overflow. Values without
// a numeric reading are skipped.
func aggregateSum(values []any) []any {
	var (
		isum     int64
		fsum     float64
		integral = true
	)
	for _, v := range values {
		if integral && item.IsIntegral(v) {
			if n, err := item.ToInteger(v); err == nil {
				if s, ok := addInt64(isum, n); ok {
					isum = s
					continue
				}
			}
		}
		n, ok := item.ToNumber(v)
		if !ok {
			continue
		}
		if integral {
			fsum = float64(isum)
			integral = false
		}
		fsum += n
	}
	if integral {
		return []any{isum}
	}
	return []any{fsum}
}

// addInt64 returns a+b and false when the addition overflows.
func addInt64(a, b int64) (int64, bool) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, false
	}
	return s, true
}

func aggregateCount(values []any) []any {
	return []any{int64(len(values))}
}

func aggregateMax(values []any) []any {
	return []any{extreme(values, 1)}
}

func aggregateMin(values []any) []any {
	return []any{extreme(values, -1)}
}

// extreme returns the value that compares furthest in direction dir.
// Values are compared as numbers when all of them are numeric and as text
// otherwise. The original value is returned, not its converted form.
func extreme(values []any, dir int) any {
	numeric := true
	nums := make([]float64, len(values))
	for i, v := range values {
		n, ok := item.ToNumber(v)
		if !ok {
			numeric = false
			break
		}
		nums[i] = n
	}

	best := 0
	for i := 1; i < len(values); i++ {
		var cmp int
		if numeric {
			cmp = compareFloat(nums[i], nums[best])
		} else {
			cmp = strings.Compare(item.ToText(values[i]), item.ToText(values[best]))
		}
		if cmp*dir > 0 {
			best = i
		}
	}
	return values[best]
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func aggregateFirst(values []any) []any {
	return []any{values[0]}
}
