package action

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/dshills/inputmap/internal/event"
)

func TestNewUnknownTag(t *testing.T) {
	_, err := New("LaunchMissilesAction")
	if !errors.Is(err, ErrUnknownTag) {
		t.Errorf("New error = %v, want ErrUnknownTag", err)
	}
}

func TestTagsMatchActions(t *testing.T) {
	for _, tag := range Tags() {
		a, err := New(tag)
		if err != nil {
			t.Fatalf("New(%q) error = %v", tag, err)
		}
		if a.Tag() != tag {
			t.Errorf("New(%q).Tag() = %q", tag, a.Tag())
		}
	}
}

func TestDecodeFields(t *testing.T) {
	tests := []struct {
		tag     string
		fields  Fields
		check   func(t *testing.T, a Action)
		wantErr bool
	}{
		{
			tag:    TagChangeMode,
			fields: Fields{"modeid": "7", "modename": "Gaming"},
			check: func(t *testing.T, a Action) {
				m := a.(*ChangeModeAction)
				if m.ModeID != 7 || m.ModeName != "Gaming" {
					t.Errorf("got %+v", m)
				}
			},
		},
		{
			tag:    TagHoldKey,
			fields: Fields{"key": "0x25", "scancode": "331", "autorelease": "true"},
			check: func(t *testing.T, a Action) {
				h := a.(*HoldKeyAction)
				if h.Key.VirtualKey != 0x25 || h.Key.ScanCode != 331 || !h.AutoRelease {
					t.Errorf("got %+v", h)
				}
				if !h.Key.Extended() {
					t.Error("scan code 331 should be extended")
				}
			},
		},
		{
			tag:    TagWait,
			fields: Fields{"ms": "250"},
			check: func(t *testing.T, a Action) {
				if d := a.(*WaitAction).Duration; d != 250*time.Millisecond {
					t.Errorf("Duration = %v", d)
				}
			},
		},
		{
			tag:    TagMouseButton,
			fields: Fields{"button": "right", "mode": "press"},
			check: func(t *testing.T, a Action) {
				m := a.(*MouseButtonAction)
				if m.Button != MouseRight || m.Mode != ButtonPress {
					t.Errorf("got %+v", m)
				}
			},
		},
		{tag: TagPressKey, fields: Fields{}, wantErr: true},
		{tag: TagPressKey, fields: Fields{"key": "abc"}, wantErr: true},
		{tag: TagWait, fields: Fields{"ms": "-5"}, wantErr: true},
		{tag: TagStartProgram, fields: Fields{"path": " "}, wantErr: true},
		{tag: TagChangeWindowState, fields: Fields{"windowid": "3", "state": "Explode"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			a, err := Decode(tt.tag, tt.fields)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode error = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidField) {
					t.Errorf("Decode error = %v, want ErrInvalidField", err)
				}
				return
			}
			tt.check(t, a)
		})
	}
}

func TestFieldsPreserveAction(t *testing.T) {
	actions := []Action{
		&ChangePageAction{PageID: 4, PageName: "Map"},
		&ToggleKeyAction{Key: KeyStroke{VirtualKey: 0x14}},
		&ChangeWindowStateAction{WindowID: 3, Title: "Pad", State: WindowToggle},
		&StartProgramAction{Path: "/usr/bin/xterm", Args: "-e top"},
	}
	for _, a := range actions {
		got, err := Decode(a.Tag(), a.Fields())
		if err != nil {
			t.Fatalf("Decode(%s) error = %v", a.Tag(), err)
		}
		if got.String() != a.String() {
			t.Errorf("decoded %q, want %q", got.String(), a.String())
		}
	}
}

type fakeResolver struct {
	modes map[int64]string
	pages map[int64]string
}

func (r fakeResolver) ModeName(id int64) (string, bool) { n, ok := r.modes[id]; return n, ok }
func (r fakeResolver) AppName(id int64) (string, bool)  { return "", id == 0 }
func (r fakeResolver) PageName(id int64) (string, bool) { n, ok := r.pages[id]; return n, ok }
func (r fakeResolver) WindowTitle(int64) (string, bool) { return "", false }

func TestResolveRefreshesNames(t *testing.T) {
	r := fakeResolver{modes: map[int64]string{7: "Gaming"}, pages: map[int64]string{}}

	m := &ChangeModeAction{ModeID: 7, ModeName: "old"}
	if !m.Resolve(r) {
		t.Fatal("mode 7 should resolve")
	}
	if m.ModeName != "Gaming" {
		t.Errorf("ModeName = %q, want Gaming", m.ModeName)
	}

	p := &ChangePageAction{PageID: 2, PageName: "Gone"}
	if p.Resolve(r) {
		t.Error("deleted page should not resolve")
	}
	if p.PageName != "Gone" {
		t.Error("unresolved action should keep its cached name")
	}
}

func TestStateActionsRequestChanges(t *testing.T) {
	h := newTestHandler()
	(&ChangeModeAction{ModeID: 3}).Start(h, nil)
	(&ChangePageAction{PageID: 5}).Start(h, nil)

	want := []event.LogicalState{
		{ModeID: 3, AppID: event.NoneID, PageID: event.NoneID},
		{ModeID: event.NoneID, AppID: event.NoneID, PageID: 5},
	}
	if len(h.changes) != len(want) {
		t.Fatalf("changes = %v, want %v", h.changes, want)
	}
	for i := range want {
		if h.changes[i] != want[i] {
			t.Errorf("change %d = %v, want %v", i, h.changes[i], want[i])
		}
	}
}

func TestToggleKeyAlternates(t *testing.T) {
	h := newTestHandler()
	a := &ToggleKeyAction{Key: KeyStroke{VirtualKey: 0x14}}
	a.Start(h, nil)
	a.Start(h, nil)

	effects := h.Effects()
	if len(effects) != 2 || !effects[0].Pressed || effects[1].Pressed {
		t.Errorf("effects = %v, want down then up", effects)
	}
}

func TestTypeTextStringTruncatesRunes(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"short", `Type "short"`},
		{strings.Repeat("é", 25), `Type "` + strings.Repeat("é", 20) + `..."`},
		{strings.Repeat("a", 19) + "日本", `Type "` + strings.Repeat("a", 19) + `日..."`},
	}
	for _, tt := range tests {
		got := (&TypeTextAction{Text: tt.text}).String()
		if got != tt.want {
			t.Errorf("String() = %s, want %s", got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("String() = %q is not valid UTF-8", got)
		}
	}
}
