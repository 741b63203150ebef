package profile

import (
	"fmt"
	"sort"

	"github.com/dshills/inputmap/internal/action"
	"github.com/dshills/inputmap/internal/event"
	"github.com/dshills/inputmap/internal/mapping"
)

// Profile is a complete input mapping configuration: the logical state
// registries, input sources, screen regions and the mapping hierarchy.
// Profile is not safe for concurrent use.
type Profile struct {
	Name  string
	Notes string

	Modes *NamedItems
	Apps  *NamedItems
	Pages *NamedItems

	Regions *Regions

	sources map[int64]Source
	root    *mapping.Root
}

// New creates an empty profile holding only the Default mode, app and page.
func New(name string) *Profile {
	return &Profile{
		Name:    name,
		Modes:   newNamedItems("mode"),
		Apps:    newNamedItems("app"),
		Pages:   newNamedItems("page"),
		Regions: newRegions(),
		sources: make(map[int64]Source),
		root:    mapping.NewRoot(),
	}
}

// Root returns the mapping hierarchy.
func (p *Profile) Root() *mapping.Root { return p.root }

// AddSource registers an input source. A source with ID 0 gets the lowest
// free ID.
func (p *Profile) AddSource(s Source) (int64, error) {
	b := s.base()
	if b.id == 0 {
		for id := int64(1); id <= MaxSourceID; id++ {
			if _, ok := p.sources[id]; !ok {
				b.id = id
				break
			}
		}
		if b.id == 0 {
			return 0, ErrSourceLimit
		}
	}
	if b.id < 1 || b.id > MaxSourceID {
		return 0, fmt.Errorf("source id %d out of range [1,%d]", b.id, MaxSourceID)
	}
	if _, ok := p.sources[b.id]; ok {
		return 0, fmt.Errorf("source %d: %w", b.id, ErrDuplicateID)
	}
	b.lookup = p
	p.sources[b.id] = s
	return b.id, nil
}

// RemoveSource unregisters an input source. Mappings bound to it are
// removed by the next Validate.
func (p *Profile) RemoveSource(id int64) error {
	s, ok := p.sources[id]
	if !ok {
		return fmt.Errorf("source %d: %w", id, ErrNotFound)
	}
	s.base().lookup = nil
	delete(p.sources, id)
	return nil
}

// Source returns an input source by ID.
func (p *Profile) Source(id int64) (Source, bool) {
	s, ok := p.sources[id]
	return s, ok
}

// Sources returns the input sources in ascending ID order.
func (p *Profile) Sources() []Source {
	ids := make([]int64, 0, len(p.sources))
	for id := range p.sources {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Source, len(ids))
	for i, id := range ids {
		out[i] = p.sources[id]
	}
	return out
}

// HasRegion reports whether a screen region exists.
func (p *Profile) HasRegion(id int64) bool {
	return p.Regions.Has(id)
}

// ModeName implements action.Resolver.
func (p *Profile) ModeName(id int64) (string, bool) { return p.Modes.Name(id) }

// AppName implements action.Resolver.
func (p *Profile) AppName(id int64) (string, bool) { return p.Apps.Name(id) }

// PageName implements action.Resolver.
func (p *Profile) PageName(id int64) (string, bool) { return p.Pages.Name(id) }

// WindowTitle implements action.Resolver. Only custom windows have titles.
func (p *Profile) WindowTitle(sourceID int64) (string, bool) {
	w, ok := p.sources[sourceID].(*CustomWindowSource)
	if !ok {
		return "", false
	}
	return w.Title, true
}

// SetActionList stores a list under its own state and event, replacing
// any list already there.
func (p *Profile) SetActionList(l *action.ActionList) {
	p.root.GetActions(l.State, false).Set(l.Key(), l)
}

// ActionList returns the stored list for a state and event, creating an
// empty Series list if none exists.
func (p *Profile) ActionList(s event.LogicalState, d event.Descriptor) *action.ActionList {
	t := p.root.GetActions(s, false)
	if l := t.Get(d.ToID()); l != nil {
		return l
	}
	l := action.NewActionList(s, d, action.Series)
	t.Set(d.ToID(), l)
	return l
}

// GetActionsForState returns the action mapping table for a logical state.
// Mode, app and page IDs that are not registered, or not applicable, fall
// back to Default. With includeDefaults the result is a fresh view in
// which each level falls back to its Default sibling; without it the
// stored table is returned for editing.
func (p *Profile) GetActionsForState(s event.LogicalState, includeDefaults bool) *mapping.ActionMappingTable {
	return p.root.GetActions(p.normalize(s), includeDefaults)
}

func (p *Profile) normalize(s event.LogicalState) event.LogicalState {
	if !p.Modes.Has(s.ModeID) {
		s.ModeID = event.DefaultID
	}
	if !p.Apps.Has(s.AppID) {
		s.AppID = event.DefaultID
	}
	if !p.Pages.Has(s.PageID) {
		s.PageID = event.DefaultID
	}
	return s
}

// EachActionList calls fn for every stored list in mode, app, page and
// event order.
func (p *Profile) EachActionList(fn func(l *action.ActionList)) {
	p.root.Walk(func(_ event.LogicalState, t *mapping.ActionMappingTable) {
		t.Each(func(_ event.Key, l *action.ActionList) { fn(l) })
	})
}

// ActionListsForControlType returns every stored list bound to a control
// type, in mode, app, page and event order.
func (p *Profile) ActionListsForControlType(ct event.ControlType) []*action.ActionList {
	var out []*action.ActionList
	p.EachActionList(func(l *action.ActionList) {
		if l.Key().ControlType() == ct {
			out = append(out, l)
		}
	})
	return out
}

// GetActionsForControlType flattens the hierarchy into one fresh table of
// the lists bound to a control type. When the same event is bound in
// several states the first in mode, app, page order is kept; use
// ActionListsForControlType to see every binding.
func (p *Profile) GetActionsForControlType(ct event.ControlType) *mapping.ActionMappingTable {
	out := mapping.NewActionMappingTable(event.DefaultID)
	for _, l := range p.ActionListsForControlType(ct) {
		if out.Get(l.Key()) == nil {
			out.Set(l.Key(), l)
		}
	}
	return out
}

// RenumberActionLists assigns display IDs 1..N to the non-empty lists in
// mode, app, page and event order. Empty lists get 0.
func (p *Profile) RenumberActionLists() int {
	n := 0
	p.EachActionList(func(l *action.ActionList) {
		if l.IsEmpty() {
			l.ID = 0
			return
		}
		n++
		l.ID = n
	})
	return n
}

// AddMode registers a mode.
func (p *Profile) AddMode(name string) NamedItem { return p.Modes.Add(name) }

// RemoveMode unregisters a mode. Its mappings and the actions switching to
// it are removed by the next Validate.
func (p *Profile) RemoveMode(id int64) error { return p.Modes.Remove(id) }

// AddApp registers an application context.
func (p *Profile) AddApp(name string) NamedItem { return p.Apps.Add(name) }

// RemoveApp unregisters an application context.
func (p *Profile) RemoveApp(id int64) error { return p.Apps.Remove(id) }

// AddPage registers a page.
func (p *Profile) AddPage(name string) NamedItem { return p.Pages.Add(name) }

// RemovePage unregisters a page.
func (p *Profile) RemovePage(id int64) error { return p.Pages.Remove(id) }

// AddRegion registers a screen region and returns its ID.
func (p *Profile) AddRegion(r ScreenRegion) (int64, error) { return p.Regions.Add(r) }

// RemoveRegion unregisters a screen region.
func (p *Profile) RemoveRegion(id int64) error { return p.Regions.Remove(id) }
