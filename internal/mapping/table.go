package mapping

import (
	"sort"

	"github.com/dshills/inputmap/internal/action"
	"github.com/dshills/inputmap/internal/event"
)

// ActionMappingTable maps event keys to action lists for one
// (mode, app, page) triple.
type ActionMappingTable struct {
	ID    int64
	lists map[event.Key]*action.ActionList
}

// NewActionMappingTable creates an empty table.
func NewActionMappingTable(id int64) *ActionMappingTable {
	return &ActionMappingTable{
		ID:    id,
		lists: make(map[event.Key]*action.ActionList),
	}
}

// Get returns the list bound to k, or nil.
func (t *ActionMappingTable) Get(k event.Key) *action.ActionList {
	if t == nil {
		return nil
	}
	return t.lists[k]
}

// Set binds a list to k. A nil list removes the binding.
func (t *ActionMappingTable) Set(k event.Key, l *action.ActionList) {
	if l == nil {
		delete(t.lists, k)
		return
	}
	t.lists[k] = l
}

// Delete removes the binding for k.
func (t *ActionMappingTable) Delete(k event.Key) {
	delete(t.lists, k)
}

// Len returns the number of bindings.
func (t *ActionMappingTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.lists)
}

// Keys returns the bound keys in ascending order.
func (t *ActionMappingTable) Keys() []event.Key {
	if t == nil {
		return nil
	}
	keys := make([]event.Key, 0, len(t.lists))
	for k := range t.lists {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Each calls fn for every binding in ascending key order.
func (t *ActionMappingTable) Each(fn func(k event.Key, l *action.ActionList)) {
	for _, k := range t.Keys() {
		fn(k, t.lists[k])
	}
}

// Filter removes the bindings for which keep returns false and reports how
// many were removed.
func (t *ActionMappingTable) Filter(keep func(k event.Key, l *action.ActionList) bool) int {
	removed := 0
	for _, k := range t.Keys() {
		if !keep(k, t.lists[k]) {
			delete(t.lists, k)
			removed++
		}
	}
	return removed
}

// Combine returns a new table holding every non-empty binding of specific
// plus the bindings of def for keys that specific leaves unbound or empty.
// The result shares *action.ActionList pointers with both inputs; it is a
// read-only view and must not be stored as hierarchy state.
func Combine(specific, def *ActionMappingTable) *ActionMappingTable {
	var id int64
	switch {
	case specific != nil:
		id = specific.ID
	case def != nil:
		id = def.ID
	}
	out := NewActionMappingTable(id)

	if specific != nil {
		for k, l := range specific.lists {
			out.lists[k] = l
		}
	}
	if def != nil {
		for k, l := range def.lists {
			if cur, ok := out.lists[k]; !ok || cur.IsEmpty() {
				out.lists[k] = l
			}
		}
	}
	return out
}
