package profile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/inputmap/internal/action"
	"github.com/dshills/inputmap/internal/event"
	"github.com/dshills/inputmap/internal/upgrade"
)

const legacyDoc = `<?xml version="1.0"?>
<profile version="1.2" name="Legacy">
  <notes>old</notes>
  <sources>
    <KeyboardSource id="1" name="Keyboard"/>
    <MouseSource id="2" name="Mouse"/>
  </sources>
  <regions refimage="screen.png" overlayposition="top">
    <region id="1" name="Left" x="0" y="0" width="0.5" height="1"/>
  </regions>
  <modes><mode id="0" name="Default"/><mode id="7" name="Gaming"/></modes>
  <apps/>
  <pages/>
  <mapping>
    <actionlist modeid="7" appid="0" pageid="0" sourceid="2" controltype="MousePointer" eventdata="0" eventreason="Moved" executionmode="Series">
      <HoldKeyAction key="65" region="1" autorelease="true"/>
    </actionlist>
    <actionlist modeid="0" appid="0" pageid="0" sourceid="1" controltype="Keyboard" eventdata="65" eventreason="Pressed" executionmode="Parallel">
      <PressKeyAction key="66"/>
      <WaitAction ms="50"/>
    </actionlist>
  </mapping>
</profile>
`

func TestStoreRoundTrip(t *testing.T) {
	p := newTestProfile(t)
	p.Notes = "notes & more"
	mode := p.AddMode("Gaming")
	region, _ := p.AddRegion(ScreenRegion{Name: "R", Shape: ShapeEllipse, Bounds: Rect{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4},
		Translucency: 0.25, ShowInState: event.LogicalState{ModeID: mode.ID, AppID: event.NoneID, PageID: event.NoneID}})
	l := bind(p, event.LogicalState{ModeID: mode.ID}, event.Descriptor{SourceID: 2, ControlType: event.ControlMousePointer, Data: int(region), Reason: event.ReasonInside, Name: "enter"},
		&action.HoldKeyAction{Key: action.KeyStroke{VirtualKey: 0x25, ScanCode: 0x14B}, AutoRelease: true},
		&action.WaitAction{},
	)
	l.Mode = action.Parallel
	p.Validate()

	s := NewStore(nil, nil)
	path := filepath.Join(t.TempDir(), "profiles", "test"+FileExt)
	if err := s.Save(path, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := s.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Upgrades) != 0 {
		t.Errorf("current document upgraded: %v", loaded.Upgrades)
	}
	q := loaded.Profile
	if q.Notes != p.Notes || q.Name != p.Name {
		t.Errorf("Name/Notes = %q/%q, want %q/%q", q.Name, q.Notes, p.Name, p.Notes)
	}
	if snapshot(q) != snapshot(p) {
		t.Errorf("round trip differs:\n%s\n---\n%s", snapshot(p), snapshot(q))
	}

	got := q.GetActionsForState(event.LogicalState{ModeID: mode.ID}, true).Get(l.Key())
	if got == nil || got.Mode != action.Parallel || got.Len() != 2 || got.Event.Name != "enter" {
		t.Fatalf("reloaded list = %v", got)
	}
	hold, ok := got.At(0).(*action.HoldKeyAction)
	if !ok || !hold.AutoRelease || !hold.Key.Extended() {
		t.Errorf("reloaded hold action = %+v", got.At(0))
	}
	w, _ := q.Source(3)
	if b, ok := w.(*CustomWindowSource).Button(3); !ok || b.Name != "Fire" {
		t.Errorf("custom button = %+v, %v", b, ok)
	}
}

func TestStoreLoadUpgradesLegacy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy"+FileExt)
	if err := os.WriteFile(path, []byte(legacyDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(upgrade.New("", nil), nil)
	s.Backup = true
	loaded, err := s.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Upgrades) != 3 {
		t.Errorf("applied %d checkpoints, want 3", len(loaded.Upgrades))
	}

	p := loaded.Profile
	inside := event.Descriptor{SourceID: 2, ControlType: event.ControlMousePointer, Data: 1, Reason: event.ReasonInside}
	if l := p.GetActionsForState(event.LogicalState{ModeID: 7}, true).Get(inside.ToID()); l.IsEmpty() {
		t.Error("no per-region Inside list after upgrade")
	}
	outside := inside.WithReason(event.ReasonOutside)
	l := p.GetActionsForState(event.LogicalState{ModeID: 7}, true).Get(outside.ToID())
	if l.IsEmpty() || l.At(0).Tag() != action.TagReleaseKey {
		t.Errorf("Outside list = %v, want a release", l)
	}
	r, _ := p.Regions.Get(1)
	if r.Translucency != upgrade.DefaultTranslucency {
		t.Errorf("region translucency = %v, want %v", r.Translucency, upgrade.DefaultTranslucency)
	}

	if err := s.Save(path, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	bak, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if string(bak) != legacyDoc {
		t.Error("backup does not hold the pre-upgrade document")
	}
	saved, _ := os.ReadFile(path)
	if !strings.Contains(string(saved), `version="`+upgrade.CurrentVersion+`"`) {
		t.Errorf("saved document not at %s", upgrade.CurrentVersion)
	}
}

func TestStoreRejectsLegacyWithoutUpgrader(t *testing.T) {
	_, err := NewStore(nil, nil).Decode([]byte(legacyDoc))
	if !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("Decode error = %v, want ErrMalformedDocument", err)
	}
}

func TestMalformedDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not xml", `<profile`},
		{"wrong root", `<config version="1.96"/>`},
		{"unknown source", `<profile version="1.96"><sources><JoystickSource id="1"/></sources></profile>`},
		{"source id range", `<profile version="1.96"><sources><KeyboardSource id="16"/></sources></profile>`},
		{"duplicate source", `<profile version="1.96"><sources><KeyboardSource id="1"/><MouseSource id="1"/></sources></profile>`},
		{"unknown action", `<profile version="1.96"><mapping><actionlist><FlyAction/></actionlist></mapping></profile>`},
		{"bad field", `<profile version="1.96"><mapping><actionlist><PressKeyAction key="x"/></actionlist></mapping></profile>`},
		{"bad attribute", `<profile version="1.96"><mapping><actionlist modeid="one"/></mapping></profile>`},
		{"bad enum", `<profile version="1.96"><mapping><actionlist eventreason="Sneezed"/></mapping></profile>`},
		{"negative mode", `<profile version="1.96"><modes><mode id="-3" name="x"/></modes></profile>`},
	}
	s := NewStore(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Decode([]byte(tt.doc))
			if !errors.Is(err, ErrMalformedDocument) {
				t.Fatalf("Decode error = %v, want ErrMalformedDocument", err)
			}
			var de *DocumentError
			if !errors.As(err, &de) {
				t.Errorf("error %T is not a *DocumentError", err)
			}
		})
	}
}

func TestLoadSetsDocumentPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad"+FileExt)
	if err := os.WriteFile(path, []byte(`<profile version="1.96"><sources><Nope/></sources></profile>`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewStore(nil, nil).Load(path)
	var de *DocumentError
	if !errors.As(err, &de) || de.Path != path {
		t.Fatalf("Load error = %v, want DocumentError for %s", err, path)
	}
	if !strings.Contains(de.Element, "Nope") {
		t.Errorf("Element = %q, want the offending element path", de.Element)
	}
}

func TestEnumAttributesAcceptNumbers(t *testing.T) {
	doc := `<profile version="1.96"><sources><KeyboardSource id="1"/></sources><mapping>
<actionlist sourceid="1" controltype="3" eventdata="65" eventreason="1"><TypeTextAction text="a"/></actionlist>
</mapping></profile>`
	loaded, err := NewStore(nil, nil).Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if l := loaded.Profile.GetActionsForState(event.DefaultState(), true).Get(keyA(event.ReasonPressed).ToID()); l == nil {
		t.Error("numeric enum attributes did not resolve to the keyboard binding")
	}
}
