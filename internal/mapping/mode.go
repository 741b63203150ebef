package mapping

import (
	"github.com/dshills/inputmap/internal/event"
)

// ModeMappingTable maps app IDs to app mapping tables.
type ModeMappingTable struct {
	ID   int64
	apps map[int64]*AppMappingTable
}

// NewModeMappingTable creates a table holding only the Default app.
func NewModeMappingTable(id int64) *ModeMappingTable {
	return &ModeMappingTable{
		ID: id,
		apps: map[int64]*AppMappingTable{
			event.DefaultID: NewAppMappingTable(event.DefaultID),
		},
	}
}

// Get returns the table for an app.
//
// Without defaults the stored table is returned, created and registered if
// missing. With defaults a fresh view is returned whose pages combine the
// app with the Default app.
func (t *ModeMappingTable) Get(appID int64, includeDefaults bool) *AppMappingTable {
	if !includeDefaults {
		at, ok := t.apps[appID]
		if !ok {
			at = NewAppMappingTable(appID)
			t.apps[appID] = at
		}
		return at
	}
	if t == nil {
		return combineApps(nil, nil, appID)
	}
	if appID == event.DefaultID {
		return combineApps(t.apps[event.DefaultID], nil, appID)
	}
	return combineApps(t.apps[appID], t.apps[event.DefaultID], appID)
}

// Lookup returns the stored table for an app without creating it.
func (t *ModeMappingTable) Lookup(appID int64) (*AppMappingTable, bool) {
	if t == nil {
		return nil, false
	}
	at, ok := t.apps[appID]
	return at, ok
}

func (t *ModeMappingTable) resolve(appID, pageID int64) *ActionMappingTable {
	if t == nil {
		return NewActionMappingTable(pageID)
	}
	specific := t.apps[appID].resolve(pageID)
	if appID == event.DefaultID {
		return specific
	}
	return Combine(specific, t.apps[event.DefaultID].resolve(pageID))
}

// Delete removes an app. The Default app cannot be removed.
func (t *ModeMappingTable) Delete(appID int64) bool {
	if appID == event.DefaultID {
		return false
	}
	if _, ok := t.apps[appID]; !ok {
		return false
	}
	delete(t.apps, appID)
	return true
}

// IDs returns the app IDs in ascending order.
func (t *ModeMappingTable) IDs() []int64 {
	if t == nil {
		return nil
	}
	return sortedIDs(t.apps)
}

// Root maps mode IDs to mode mapping tables. It is the top of the hierarchy.
type Root struct {
	modes map[int64]*ModeMappingTable
}

// NewRoot creates a hierarchy holding only the Default mode.
func NewRoot() *Root {
	return &Root{
		modes: map[int64]*ModeMappingTable{
			event.DefaultID: NewModeMappingTable(event.DefaultID),
		},
	}
}

// Get returns the table for a mode.
//
// Without defaults the stored table is returned, created and registered if
// missing. With defaults a fresh view combining the mode with the Default
// mode is returned.
func (r *Root) Get(modeID int64, includeDefaults bool) *ModeMappingTable {
	if !includeDefaults {
		mt, ok := r.modes[modeID]
		if !ok {
			mt = NewModeMappingTable(modeID)
			r.modes[modeID] = mt
		}
		return mt
	}

	specific := r.modes[modeID]
	def := r.modes[event.DefaultID]
	if modeID == event.DefaultID {
		def = nil
	}
	out := &ModeMappingTable{ID: modeID, apps: make(map[int64]*AppMappingTable)}
	for _, aid := range unionIDs(specific.IDs(), def.IDs(), event.DefaultID) {
		out.apps[aid] = combineModeApps(specific, def, aid)
	}
	return out
}

func combineModeApps(specific, def *ModeMappingTable, appID int64) *AppMappingTable {
	a := specific.Get(appID, true)
	if def == nil {
		return a
	}
	return combineApps(a, def.Get(appID, true), appID)
}

// GetActions returns the action mapping table for a logical state.
//
// Without defaults the stored table is returned, creating any missing level.
// With defaults a fresh view is returned in which every level is combined
// with its Default sibling.
func (r *Root) GetActions(s event.LogicalState, includeDefaults bool) *ActionMappingTable {
	if !includeDefaults {
		return r.Get(s.ModeID, false).Get(s.AppID, false).Get(s.PageID, false)
	}
	specific := r.modes[s.ModeID].resolve(s.AppID, s.PageID)
	if s.ModeID == event.DefaultID {
		return specific
	}
	return Combine(specific, r.modes[event.DefaultID].resolve(s.AppID, s.PageID))
}

// Lookup returns the stored table for a mode without creating it.
func (r *Root) Lookup(modeID int64) (*ModeMappingTable, bool) {
	mt, ok := r.modes[modeID]
	return mt, ok
}

// Delete removes a mode. The Default mode cannot be removed.
func (r *Root) Delete(modeID int64) bool {
	if modeID == event.DefaultID {
		return false
	}
	if _, ok := r.modes[modeID]; !ok {
		return false
	}
	delete(r.modes, modeID)
	return true
}

// IDs returns the mode IDs in ascending order.
func (r *Root) IDs() []int64 {
	return sortedIDs(r.modes)
}

// Walk calls fn for every stored action mapping table in mode, app, page
// order. Views are never visited.
func (r *Root) Walk(fn func(s event.LogicalState, t *ActionMappingTable)) {
	for _, mid := range r.IDs() {
		mt := r.modes[mid]
		for _, aid := range mt.IDs() {
			at := mt.apps[aid]
			for _, pid := range at.IDs() {
				fn(event.LogicalState{ModeID: mid, AppID: aid, PageID: pid}, at.pages[pid])
			}
		}
	}
}
