package mapping

import (
	"testing"
	"time"

	"github.com/dshills/inputmap/internal/action"
	"github.com/dshills/inputmap/internal/event"
)

func keyFor(data int) event.Key {
	return event.Descriptor{SourceID: 1, ControlType: event.ControlKeyboard, Data: data, Reason: event.ReasonPressed}.ToID()
}

func listWith(state event.LogicalState, data int, text string) *action.ActionList {
	d := event.FromID(keyFor(data))
	l := action.NewActionList(state, d, action.Series)
	if text != "" {
		l.Add(&action.TypeTextAction{Text: text})
	}
	return l
}

func text(t *testing.T, l *action.ActionList) string {
	t.Helper()
	if l == nil || l.IsEmpty() {
		return ""
	}
	return l.At(0).(*action.TypeTextAction).Text
}

func TestCombineWithEmpty(t *testing.T) {
	a := NewActionMappingTable(1)
	la := listWith(event.DefaultState(), 65, "a")
	lb := listWith(event.DefaultState(), 66, "b")
	a.Set(keyFor(65), la)
	a.Set(keyFor(66), lb)

	got := Combine(a, NewActionMappingTable(0))
	if got == a {
		t.Fatal("Combine must return a new table")
	}
	if got.Len() != 2 || got.Get(keyFor(65)) != la || got.Get(keyFor(66)) != lb {
		t.Error("Combine(A, empty) should hold the same instances as A")
	}

	got = Combine(nil, a)
	if got.Len() != 2 || got.Get(keyFor(65)) != la || got.Get(keyFor(66)) != lb {
		t.Error("Combine(empty, B) should hold the same instances as B")
	}
}

func TestCombinePrecedence(t *testing.T) {
	specific := NewActionMappingTable(2)
	def := NewActionMappingTable(0)

	own := listWith(event.DefaultState(), 65, "specific")
	empty := listWith(event.DefaultState(), 66, "")
	inherited := listWith(event.DefaultState(), 66, "default-b")
	shadowed := listWith(event.DefaultState(), 65, "default-a")
	onlyDefault := listWith(event.DefaultState(), 67, "default-c")

	specific.Set(keyFor(65), own)
	specific.Set(keyFor(66), empty)
	def.Set(keyFor(65), shadowed)
	def.Set(keyFor(66), inherited)
	def.Set(keyFor(67), onlyDefault)

	got := Combine(specific, def)
	if got.ID != 2 {
		t.Errorf("ID = %d, want 2", got.ID)
	}
	if got.Get(keyFor(65)) != own {
		t.Error("specific non-empty list should win")
	}
	if got.Get(keyFor(66)) != inherited {
		t.Error("empty specific list should fall back to default")
	}
	if got.Get(keyFor(67)) != onlyDefault {
		t.Error("default-only key should be inherited")
	}
	if specific.Len() != 2 || def.Len() != 3 {
		t.Error("Combine must not modify its inputs")
	}
}

func TestCombineSharesExecutionState(t *testing.T) {
	def := NewActionMappingTable(0)
	l := action.NewActionList(event.DefaultState(), event.FromID(keyFor(65)), action.Series)
	l.Add(&action.HoldKeyAction{Key: action.KeyStroke{VirtualKey: 65}})
	def.Set(keyFor(65), l)

	view1 := Combine(NewActionMappingTable(3), def)
	view2 := Combine(NewActionMappingTable(4), def)

	h := &nopHandler{}
	view1.Get(keyFor(65)).Start(h, nil)
	if !view2.Get(keyFor(65)).IsOngoing() || !def.Get(keyFor(65)).IsOngoing() {
		t.Error("execution state should be visible through every view")
	}
}

func TestAppGetWithoutDefaultsCreates(t *testing.T) {
	app := NewAppMappingTable(5)
	if ids := app.IDs(); len(ids) != 1 || ids[0] != event.DefaultID {
		t.Fatalf("IDs() = %v, want [0]", ids)
	}

	pt := app.Get(3, false)
	if pt == nil || pt.ID != 3 {
		t.Fatalf("Get(3, false) = %+v", pt)
	}
	if again := app.Get(3, false); again != pt {
		t.Error("Get without defaults should return the stored table")
	}
	if _, ok := app.Lookup(3); !ok {
		t.Error("page 3 should be registered")
	}

	view := app.Get(4, true)
	if _, ok := app.Lookup(4); ok {
		t.Error("Get with defaults must not register a table")
	}
	if view.ID != 4 {
		t.Errorf("view ID = %d, want 4", view.ID)
	}

	if app.Delete(event.DefaultID) {
		t.Error("Default page must not be deletable")
	}
	if !app.Delete(3) || app.Delete(3) {
		t.Error("Delete(3) should succeed once")
	}
}

func TestRootPrecedence(t *testing.T) {
	r := NewRoot()
	const mode, app, page = 7, 2, 3
	state := event.LogicalState{ModeID: mode, AppID: app, PageID: page}

	// Each key is bound at several levels; the most specific must win.
	levels := []struct {
		s    event.LogicalState
		name string
	}{
		{event.LogicalState{ModeID: 0, AppID: 0, PageID: 0}, "0/0/0"},
		{event.LogicalState{ModeID: 0, AppID: 0, PageID: page}, "0/0/P"},
		{event.LogicalState{ModeID: 0, AppID: app, PageID: 0}, "0/A/0"},
		{event.LogicalState{ModeID: 0, AppID: app, PageID: page}, "0/A/P"},
		{event.LogicalState{ModeID: mode, AppID: 0, PageID: 0}, "M/0/0"},
		{event.LogicalState{ModeID: mode, AppID: 0, PageID: page}, "M/0/P"},
		{event.LogicalState{ModeID: mode, AppID: app, PageID: 0}, "M/A/0"},
		{event.LogicalState{ModeID: mode, AppID: app, PageID: page}, "M/A/P"},
	}
	// Key i is bound at levels 0..i, so level i is its most specific binding.
	for i := range levels {
		for j := 0; j <= i; j++ {
			lv := levels[j]
			r.GetActions(lv.s, false).Set(keyFor(i), listWith(lv.s, i, lv.name))
		}
	}

	got := r.GetActions(state, true)
	if got.Len() != len(levels) {
		t.Fatalf("resolved %d bindings, want %d", got.Len(), len(levels))
	}
	for i, lv := range levels {
		if name := text(t, got.Get(keyFor(i))); name != lv.name {
			t.Errorf("key %d resolved to %q, want %q", i, name, lv.name)
		}
	}

	// The nested views must agree with the direct resolution.
	viaViews := r.Get(mode, true).Get(app, true).Get(page, true)
	for _, k := range got.Keys() {
		if viaViews.Get(k) != got.Get(k) {
			t.Errorf("key %d: view resolution differs", k)
		}
	}
}

func TestRootUnknownModeFallsThrough(t *testing.T) {
	r := NewRoot()
	def := listWith(event.DefaultState(), 65, "default")
	r.GetActions(event.DefaultState(), false).Set(keyFor(65), def)

	got := r.GetActions(event.LogicalState{ModeID: 42, AppID: 9, PageID: 9}, true)
	if got.Get(keyFor(65)) != def {
		t.Error("unknown state should inherit the Default bindings")
	}
	if _, ok := r.Lookup(42); ok {
		t.Error("lookup with defaults must not create mode 42")
	}
}

func TestRootWalkOrder(t *testing.T) {
	r := NewRoot()
	r.GetActions(event.LogicalState{ModeID: 2, AppID: 1, PageID: 0}, false)
	r.GetActions(event.LogicalState{ModeID: 1, AppID: 0, PageID: 4}, false)

	var visited []event.LogicalState
	r.Walk(func(s event.LogicalState, _ *ActionMappingTable) {
		visited = append(visited, s)
	})

	want := []event.LogicalState{
		{ModeID: 0, AppID: 0, PageID: 0},
		{ModeID: 1, AppID: 0, PageID: 0},
		{ModeID: 1, AppID: 0, PageID: 4},
		{ModeID: 2, AppID: 0, PageID: 0},
		{ModeID: 2, AppID: 1, PageID: 0},
	}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visit %d = %v, want %v", i, visited[i], want[i])
		}
	}
}

func TestTableFilter(t *testing.T) {
	tbl := NewActionMappingTable(0)
	for i := 60; i < 65; i++ {
		tbl.Set(keyFor(i), listWith(event.DefaultState(), i, "x"))
	}
	removed := tbl.Filter(func(k event.Key, _ *action.ActionList) bool { return k.Data()%2 == 0 })
	if removed != 2 || tbl.Len() != 3 {
		t.Errorf("Filter removed %d, left %d; want 2, 3", removed, tbl.Len())
	}
	tbl.Set(keyFor(60), nil)
	if tbl.Get(keyFor(60)) != nil {
		t.Error("Set(nil) should remove the binding")
	}
}

type nopHandler struct{ action.EffectLog }

func (*nopHandler) ChangeState(event.LogicalState) {}
func (*nopHandler) Now() time.Time                 { return time.Time{} }
