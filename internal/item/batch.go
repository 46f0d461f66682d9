package item

// Batch is an ordered set of items processed together.
type Batch struct {
	Items []*Item
}

// NewBatch creates a batch holding items in order.
func NewBatch(items ...*Item) *Batch {
	return &Batch{Items: items}
}

// Len returns the number of items.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Items)
}

// Get returns the item with the given ID.
func (b *Batch) Get(id string) (*Item, bool) {
	for _, it := range b.Items {
		if it.ID == id {
			return it, true
		}
	}
	return nil, false
}

// IDs returns item IDs in batch order.
func (b *Batch) IDs() []string {
	ids := make([]string, len(b.Items))
	for i, it := range b.Items {
		ids[i] = it.ID
	}
	return ids
}

// Retain keeps only the items whose position in keep is true and returns
// the IDs of the removed items. keep must have one entry per item; all
// decisions have to be computed before calling Retain.
func (b *Batch) Retain(keep []bool) []string {
	var removed []string
	kept := b.Items[:0]
	for i, it := range b.Items {
		if keep[i] {
			kept = append(kept, it)
			continue
		}
		removed = append(removed, it.ID)
	}
	// Clear the tail so dropped items can be collected.
	for i := len(kept); i < len(b.Items); i++ {
		b.Items[i] = nil
	}
	b.Items = kept
	return removed
}
