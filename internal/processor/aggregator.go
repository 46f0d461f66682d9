package processor

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Aman-CERP/indexprep/internal/item"
)

// AggregationSpec describes one aggregated field.
type AggregationSpec struct {
	// Label is the display name of the aggregated field.
	Label string `yaml:"label" json:"label"`

	// Type selects how values are combined.
	Type AggregationType `yaml:"type" json:"type"`

	// Fields are the source field ids, in order.
	Fields []string `yaml:"fields" json:"fields"`
}

// AggregatorConfig configures the aggregated_field processor. Fields maps
// target field ids to their specs.
type AggregatorConfig struct {
	Fields map[string]AggregationSpec `yaml:"fields" json:"fields"`
}

// ValidateAggregatorConfig checks every aggregated field.
func ValidateAggregatorConfig(cfg AggregatorConfig) ValidationErrors {
	var errs ValidationErrors
	for _, target := range sortedKeys(cfg.Fields) {
		spec := cfg.Fields[target]
		option := "fields." + target
		if strings.TrimSpace(target) == "" {
			errs.add(IDAggregatedField, "fields", "aggregated field id must not be empty")
			option = "fields"
		}
		if _, err := ParseAggregationType(string(spec.Type)); err != nil {
			errs.add(IDAggregatedField, option+".type", "unknown aggregation type %q (use one of %s)", spec.Type, joinTypes(AggregationTypes()))
		}
		if len(spec.Fields) == 0 {
			errs.add(IDAggregatedField, option+".fields", "you have to select at least one field to aggregate")
		}
		for i, src := range spec.Fields {
			switch {
			case src == "":
				errs.add(IDAggregatedField, option+".fields", "source field at position %d is empty", i)
			case src == target:
				errs.add(IDAggregatedField, option+".fields", "aggregated field cannot aggregate itself")
			}
		}
	}
	return errs
}

// Aggregate combines the source fields of spec on one item. Source fields
// that are missing or empty are skipped. When nothing contributes the
// result is absent, except for count which yields 0.
func Aggregate(it *item.Item, spec AggregationSpec) (*item.Field, bool) {
	t, err := ParseAggregationType(string(spec.Type))
	if err != nil {
		return nil, false
	}
	info := aggregations[t]

	var values []any
	for _, id := range spec.Fields {
		f, ok := it.Field(id)
		if !ok || f.IsEmpty() {
			continue
		}
		values = append(values, f.Values...)
	}

	if len(values) == 0 {
		if t != AggregationCount {
			return nil, false
		}
		return item.NewField(info.dataType, int64(0)), true
	}
	return item.NewField(info.dataType, info.fn(values)...), true
}

// Aggregator adds aggregated fields to items.
type Aggregator struct {
	weight  int
	fields  map[string]AggregationSpec
	targets []string
}

// NewAggregator creates an aggregator. Aggregation type names are
// normalized, so "concatenation" and "concat" are equivalent.
func NewAggregator(cfg AggregatorConfig, weight int) *Aggregator {
	fields := make(map[string]AggregationSpec, len(cfg.Fields))
	for target, spec := range cfg.Fields {
		if t, err := ParseAggregationType(string(spec.Type)); err == nil {
			spec.Type = t
		}
		fields[target] = spec
	}
	return &Aggregator{
		weight:  weight,
		fields:  fields,
		targets: sortedKeys(fields),
	}
}

// ID implements Processor.
func (a *Aggregator) ID() string { return IDAggregatedField }

// Kind implements Processor.
func (a *Aggregator) Kind() Kind { return KindTransform }

// Weight implements Processor.
func (a *Aggregator) Weight() int { return a.weight }

// TransformItem fills every aggregated field the item carries. Items
// without a slot for a target are left alone; the slot keeps its declared
// type.
func (a *Aggregator) TransformItem(it *item.Item) {
	for _, target := range a.targets {
		if !it.HasField(target) {
			slog.Debug("aggregated_field_not_indexed",
				slog.String("item", it.ID),
				slog.String("field", target))
			continue
		}

		result, ok := Aggregate(it, a.fields[target])
		if !ok {
			continue
		}
		slot, _ := it.Field(target)
		if slot == nil {
			it.SetField(target, result)
			continue
		}
		slot.Values = result.Values
	}
}

// PropertyDefinition describes an aggregated field to a schema layer.
type PropertyDefinition struct {
	Label       string         `json:"label" yaml:"label"`
	Description string         `json:"description" yaml:"description"`
	DataType    item.FieldType `json:"type" yaml:"type"`
	Processor   string         `json:"processor" yaml:"processor"`
}

// LabelFunc renders a field id for display.
type LabelFunc func(fieldID string) string

// DefaultFieldLabel renders "entity:node|title" as "entity » node » title".
func DefaultFieldLabel(fieldID string) string {
	return strings.NewReplacer(":", " » ", "|", " » ").Replace(fieldID)
}

// PropertyDefinitions returns the definitions of the aggregated fields.
// Aggregated fields do not belong to a datasource, so a non-empty
// datasource yields nothing. A nil labels uses DefaultFieldLabel.
func (a *Aggregator) PropertyDefinitions(datasource string, labels LabelFunc) map[string]PropertyDefinition {
	if datasource != "" {
		return nil
	}
	if labels == nil {
		labels = DefaultFieldLabel
	}

	defs := make(map[string]PropertyDefinition, len(a.fields))
	for _, target := range a.targets {
		spec := a.fields[target]
		names := make([]string, len(spec.Fields))
		for i, src := range spec.Fields {
			names[i] = labels(src)
		}

		label := spec.Label
		if label == "" {
			label = target
		}
		defs[target] = PropertyDefinition{
			Label: label,
			Description: fmt.Sprintf("A %s aggregation of the following fields: %s.",
				spec.Type.Label(), strings.Join(names, ", ")),
			DataType:  spec.Type.DataType(),
			Processor: IDAggregatedField,
		}
	}
	return defs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinTypes(types []AggregationType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
