package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/inputmap/internal/event"
)

// DefaultName is the display name of every Default entry.
const DefaultName = "Default"

// NamedItem is a mode, app or page.
type NamedItem struct {
	ID   int64
	Name string
}

// NamedItems is a registry of modes, apps or pages. It always holds the
// Default entry with ID 0.
type NamedItems struct {
	kind  string
	items map[int64]*NamedItem
}

func newNamedItems(kind string) *NamedItems {
	return &NamedItems{
		kind: kind,
		items: map[int64]*NamedItem{
			event.DefaultID: {ID: event.DefaultID, Name: DefaultName},
		},
	}
}

// Kind returns the item kind, such as "mode".
func (n *NamedItems) Kind() string { return n.kind }

// Add registers a new item with the next free ID.
func (n *NamedItems) Add(name string) NamedItem {
	item := &NamedItem{ID: n.nextID(), Name: name}
	n.items[item.ID] = item
	return *item
}

// Put registers an item with a given ID. It fails if the ID is in use,
// except that the Default entry may be renamed.
func (n *NamedItems) Put(item NamedItem) error {
	if item.ID < 0 {
		return fmt.Errorf("%s id %d: must not be negative", n.kind, item.ID)
	}
	if item.ID == event.DefaultID {
		if item.Name != "" {
			n.items[event.DefaultID].Name = item.Name
		}
		return nil
	}
	if _, ok := n.items[item.ID]; ok {
		return fmt.Errorf("%s id %d: %w", n.kind, item.ID, ErrDuplicateID)
	}
	n.items[item.ID] = &item
	return nil
}

// Remove deletes an item. The Default entry cannot be removed.
func (n *NamedItems) Remove(id int64) error {
	if id == event.DefaultID {
		return fmt.Errorf("%s: %w", n.kind, ErrDefaultItem)
	}
	if _, ok := n.items[id]; !ok {
		return fmt.Errorf("%s %d: %w", n.kind, id, ErrNotFound)
	}
	delete(n.items, id)
	return nil
}

// Rename changes the name of an item.
func (n *NamedItems) Rename(id int64, name string) error {
	item, ok := n.items[id]
	if !ok {
		return fmt.Errorf("%s %d: %w", n.kind, id, ErrNotFound)
	}
	item.Name = name
	return nil
}

// Has reports whether an item exists.
func (n *NamedItems) Has(id int64) bool {
	_, ok := n.items[id]
	return ok
}

// Name returns the name of an item.
func (n *NamedItems) Name(id int64) (string, bool) {
	item, ok := n.items[id]
	if !ok {
		return "", false
	}
	return item.Name, true
}

// Find returns the item with a name, matched case-insensitively.
func (n *NamedItems) Find(name string) (NamedItem, bool) {
	for _, id := range n.IDs() {
		if strings.EqualFold(n.items[id].Name, name) {
			return *n.items[id], true
		}
	}
	return NamedItem{}, false
}

// All returns the items in ascending ID order.
func (n *NamedItems) All() []NamedItem {
	out := make([]NamedItem, 0, len(n.items))
	for _, id := range n.IDs() {
		out = append(out, *n.items[id])
	}
	return out
}

// IDs returns the item IDs in ascending order.
func (n *NamedItems) IDs() []int64 {
	ids := make([]int64, 0, len(n.items))
	for id := range n.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of items including Default.
func (n *NamedItems) Len() int { return len(n.items) }

func (n *NamedItems) nextID() int64 {
	var max int64
	for id := range n.items {
		if id > max {
			max = id
		}
	}
	return max + 1
}
