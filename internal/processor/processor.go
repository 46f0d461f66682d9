// Package processor implements the index preprocessing steps: character
// stripping, role filtering and field aggregation.
package processor

import (
	"github.com/Aman-CERP/indexprep/internal/item"
)

// Processor identifiers as used in configuration.
const (
	IDIgnoreCharacter = "ignore_character"
	IDRoleFilter      = "role_filter"
	IDAggregatedField = "aggregated_field"
)

// Default weights. Lower weights run first, so filtering happens before
// items are transformed.
const (
	DefaultRoleFilterWeight      = -10
	DefaultAggregatedFieldWeight = -5
	DefaultIgnoreCharacterWeight = 0
)

// Kind describes what a processor does to a batch.
type Kind string

const (
	KindTransform Kind = "transform" // rewrites fields of each item
	KindFilter    Kind = "filter"    // removes items from the batch
)

// Processor is the common surface of every preprocessing step.
type Processor interface {
	// ID returns the processor identifier.
	ID() string

	// Kind reports whether the processor transforms or filters.
	Kind() Kind

	// Weight orders processors within a pipeline; lower runs first.
	Weight() int
}

// ItemTransformer rewrites the fields of a single item in place.
// Implementations must be safe to call concurrently for different items.
type ItemTransformer interface {
	Processor
	TransformItem(it *item.Item)
}

// ItemFilter decides whether an item stays in the batch.
// Implementations must not modify the item.
type ItemFilter interface {
	Processor
	Keep(it *item.Item) bool
}

// Info describes a registered processor kind.
type Info struct {
	ID          string
	Label       string
	Description string
	Kind        Kind
}

var kinds = []Info{
	{
		ID:          IDRoleFilter,
		Label:       "Role filter",
		Description: "Filters out users based on their role.",
		Kind:        KindFilter,
	},
	{
		ID:          IDAggregatedField,
		Label:       "Aggregated fields",
		Description: "Adds fields that combine the values of several other fields.",
		Kind:        KindTransform,
	},
	{
		ID:          IDIgnoreCharacter,
		Label:       "Ignore characters",
		Description: "Removes configured characters and character classes from indexed text and search keys.",
		Kind:        KindTransform,
	},
}

// Kinds lists the available processors.
func Kinds() []Info {
	out := make([]Info, len(kinds))
	copy(out, kinds)
	return out
}

// IsKnown reports whether id names an available processor.
func IsKnown(id string) bool {
	for _, k := range kinds {
		if k.ID == id {
			return true
		}
	}
	return false
}
