package mapping

import (
	"sort"

	"github.com/dshills/inputmap/internal/event"
)

// AppMappingTable maps page IDs to action mapping tables.
type AppMappingTable struct {
	ID    int64
	pages map[int64]*ActionMappingTable
}

// NewAppMappingTable creates a table holding only the Default page.
func NewAppMappingTable(id int64) *AppMappingTable {
	return &AppMappingTable{
		ID: id,
		pages: map[int64]*ActionMappingTable{
			event.DefaultID: NewActionMappingTable(event.DefaultID),
		},
	}
}

// Get returns the table for a page.
//
// Without defaults the stored table is returned, created and registered if
// missing. With defaults a fresh view combining the page with the Default
// page is returned.
func (t *AppMappingTable) Get(pageID int64, includeDefaults bool) *ActionMappingTable {
	if !includeDefaults {
		pt, ok := t.pages[pageID]
		if !ok {
			pt = NewActionMappingTable(pageID)
			t.pages[pageID] = pt
		}
		return pt
	}
	return t.resolve(pageID)
}

// Lookup returns the stored table for a page without creating it.
func (t *AppMappingTable) Lookup(pageID int64) (*ActionMappingTable, bool) {
	if t == nil {
		return nil, false
	}
	pt, ok := t.pages[pageID]
	return pt, ok
}

func (t *AppMappingTable) resolve(pageID int64) *ActionMappingTable {
	if t == nil {
		return NewActionMappingTable(pageID)
	}
	specific := t.pages[pageID]
	if pageID == event.DefaultID {
		return Combine(specific, nil)
	}
	out := Combine(specific, t.pages[event.DefaultID])
	out.ID = pageID
	return out
}

// Delete removes a page. The Default page cannot be removed.
func (t *AppMappingTable) Delete(pageID int64) bool {
	if pageID == event.DefaultID {
		return false
	}
	if _, ok := t.pages[pageID]; !ok {
		return false
	}
	delete(t.pages, pageID)
	return true
}

// IDs returns the page IDs in ascending order.
func (t *AppMappingTable) IDs() []int64 {
	if t == nil {
		return nil
	}
	return sortedIDs(t.pages)
}

// combineApps builds a view whose pages combine app with def page by page.
func combineApps(app, def *AppMappingTable, id int64) *AppMappingTable {
	out := &AppMappingTable{ID: id, pages: make(map[int64]*ActionMappingTable)}
	for _, pid := range unionIDs(app.IDs(), def.IDs(), event.DefaultID) {
		out.pages[pid] = Combine(app.resolve(pid), def.resolve(pid))
		out.pages[pid].ID = pid
	}
	return out
}

func sortedIDs[T any](m map[int64]T) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func unionIDs(a, b []int64, extra ...int64) []int64 {
	seen := make(map[int64]bool, len(a)+len(b)+len(extra))
	for _, list := range [][]int64{a, b, extra} {
		for _, id := range list {
			seen[id] = true
		}
	}
	return sortedIDs(seen)
}
