package profile

import (
	"fmt"

	"github.com/dshills/inputmap/internal/action"
	"github.com/dshills/inputmap/internal/event"
	"github.com/dshills/inputmap/internal/mapping"
)

// Report counts what Validate changed.
type Report struct {
	RegionStates  int
	Modes         int
	Apps          int
	Pages         int
	Bindings      int
	Actions       int
	NumberedLists int
}

// Changed reports whether Validate modified the profile, ignoring
// renumbering.
func (r Report) Changed() bool {
	return r.RegionStates+r.Modes+r.Apps+r.Pages+r.Bindings+r.Actions > 0
}

// String returns a one-line summary.
func (r Report) String() string {
	return fmt.Sprintf("regions=%d modes=%d apps=%d pages=%d bindings=%d actions=%d lists=%d",
		r.RegionStates, r.Modes, r.Apps, r.Pages, r.Bindings, r.Actions, r.NumberedLists)
}

// Validate removes dangling references left by edits and renumbers the
// action lists. Running it again on its result changes nothing.
func (p *Profile) Validate() Report {
	var r Report
	r.RegionStates = p.cleanRegionStates()
	r.Modes, r.Apps, r.Pages = p.pruneStates()
	r.Bindings, r.Actions = p.pruneBindings()
	r.NumberedLists = p.RenumberActionLists()
	return r
}

func (p *Profile) cleanRegionStates() int {
	n := 0
	clear := func(id *int64, items *NamedItems) {
		if *id != event.NoneID && !items.Has(*id) {
			*id = event.NoneID
			n++
		}
	}
	for _, region := range p.Regions.All() {
		clear(&region.ShowInState.ModeID, p.Modes)
		clear(&region.ShowInState.AppID, p.Apps)
		clear(&region.ShowInState.PageID, p.Pages)
	}
	return n
}

func (p *Profile) pruneStates() (modes, apps, pages int) {
	for _, mid := range p.root.IDs() {
		if !p.Modes.Has(mid) {
			if p.root.Delete(mid) {
				modes++
			}
			continue
		}
		mt, _ := p.root.Lookup(mid)
		for _, aid := range mt.IDs() {
			if !p.Apps.Has(aid) {
				if mt.Delete(aid) {
					apps++
				}
				continue
			}
			at, _ := mt.Lookup(aid)
			for _, pid := range at.IDs() {
				if !p.Pages.Has(pid) && at.Delete(pid) {
					pages++
				}
			}
		}
	}
	return modes, apps, pages
}

func (p *Profile) pruneBindings() (bindings, actions int) {
	p.root.Walk(func(_ event.LogicalState, t *mapping.ActionMappingTable) {
		bindings += t.Filter(func(k event.Key, _ *action.ActionList) bool {
			return p.accepts(k)
		})
		t.Each(func(_ event.Key, l *action.ActionList) {
			actions += l.Retain(func(a action.Action) bool {
				ref, ok := a.(action.Referrer)
				return !ok || ref.Resolve(p)
			})
		})
	})
	return bindings, actions
}

// accepts reports whether a key refers to an existing control of an
// existing source.
func (p *Profile) accepts(k event.Key) bool {
	s, ok := p.sources[k.SourceID()]
	if !ok {
		return false
	}
	d := event.FromID(k)
	return hasControlType(s, d.ControlType) && s.Accepts(d)
}
