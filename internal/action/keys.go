package action

import (
	"fmt"
	"strconv"
	"strings"
)

// Document tags of the keyboard actions.
const (
	TagPressKey   = "PressKeyAction"
	TagHoldKey    = "HoldKeyAction"
	TagReleaseKey = "ReleaseKeyAction"
	TagToggleKey  = "ToggleKeyAction"
	TagTypeText   = "TypeTextAction"
)

// ExtendedFlag marks a scan code as belonging to an extended key.
const ExtendedFlag = 0x100

// KeyStroke identifies a key to inject.
type KeyStroke struct {
	// VirtualKey is the layout-independent key code.
	VirtualKey int

	// ScanCode is the hardware scan code. Bit ExtendedFlag is set for
	// extended keys such as the arrow cluster.
	ScanCode int
}

// Extended reports whether the key is an extended key.
func (k KeyStroke) Extended() bool {
	return k.ScanCode&ExtendedFlag != 0
}

// String returns a short representation such as "VK_41".
func (k KeyStroke) String() string {
	if k.VirtualKey >= '0' && k.VirtualKey <= 'Z' && strconv.IsPrint(rune(k.VirtualKey)) {
		return string(rune(k.VirtualKey))
	}
	return fmt.Sprintf("VK_%02X", k.VirtualKey)
}

func (k KeyStroke) fields(f Fields) {
	f.SetInt("key", int64(k.VirtualKey))
	if k.ScanCode != 0 {
		f.SetInt("scancode", int64(k.ScanCode))
	}
}

func parseKeyStroke(f Fields) (KeyStroke, error) {
	vk, err := f.Int("key", 0)
	if err != nil {
		return KeyStroke{}, err
	}
	if vk <= 0 {
		return KeyStroke{}, fmt.Errorf("%w: missing key", ErrInvalidField)
	}
	sc, err := f.Int("scancode", 0)
	if err != nil {
		return KeyStroke{}, err
	}
	return KeyStroke{VirtualKey: int(vk), ScanCode: int(sc)}, nil
}

// PressKeyAction presses and releases a key.
type PressKeyAction struct {
	instant
	Key KeyStroke
}

func (a *PressKeyAction) Tag() string    { return TagPressKey }
func (a *PressKeyAction) String() string { return "Press " + a.Key.String() }

func (a *PressKeyAction) Start(h Handler, _ *EventArgs) {
	h.SendKey(a.Key, true)
	h.SendKey(a.Key, false)
}

func (a *PressKeyAction) Fields() Fields {
	f := Fields{}
	a.Key.fields(f)
	return f
}

func (a *PressKeyAction) SetFields(f Fields) (err error) {
	a.Key, err = parseKeyStroke(f)
	return err
}

// HoldKeyAction presses a key and keeps it down until stopped.
type HoldKeyAction struct {
	Key KeyStroke

	// AutoRelease asks for a companion release when the triggering
	// control leaves its active state.
	AutoRelease bool

	down bool
}

func (a *HoldKeyAction) Tag() string { return TagHoldKey }

func (a *HoldKeyAction) String() string {
	return "Hold " + a.Key.String()
}

func (a *HoldKeyAction) Start(h Handler, _ *EventArgs) {
	h.SendKey(a.Key, true)
	a.down = true
}

func (a *HoldKeyAction) Continue(Handler, *EventArgs) {}

func (a *HoldKeyAction) Stop(h Handler, _ *EventArgs) {
	if a.down {
		h.SendKey(a.Key, false)
		a.down = false
	}
}

func (a *HoldKeyAction) IsOngoing() bool { return a.down }

func (a *HoldKeyAction) Fields() Fields {
	f := Fields{}
	a.Key.fields(f)
	if a.AutoRelease {
		f.SetBool("autorelease", true)
	}
	return f
}

func (a *HoldKeyAction) SetFields(f Fields) (err error) {
	if a.Key, err = parseKeyStroke(f); err != nil {
		return err
	}
	a.AutoRelease, err = f.Bool("autorelease")
	return err
}

// ReleaseKeyAction releases a key.
type ReleaseKeyAction struct {
	instant
	Key KeyStroke
}

func (a *ReleaseKeyAction) Tag() string    { return TagReleaseKey }
func (a *ReleaseKeyAction) String() string { return "Release " + a.Key.String() }

func (a *ReleaseKeyAction) Start(h Handler, _ *EventArgs) {
	h.SendKey(a.Key, false)
}

func (a *ReleaseKeyAction) Fields() Fields {
	f := Fields{}
	a.Key.fields(f)
	return f
}

func (a *ReleaseKeyAction) SetFields(f Fields) (err error) {
	a.Key, err = parseKeyStroke(f)
	return err
}

// ToggleKeyAction alternately presses and releases a key.
type ToggleKeyAction struct {
	instant
	Key  KeyStroke
	down bool
}

func (a *ToggleKeyAction) Tag() string    { return TagToggleKey }
func (a *ToggleKeyAction) String() string { return "Toggle " + a.Key.String() }

func (a *ToggleKeyAction) Start(h Handler, _ *EventArgs) {
	a.down = !a.down
	h.SendKey(a.Key, a.down)
}

func (a *ToggleKeyAction) Fields() Fields {
	f := Fields{}
	a.Key.fields(f)
	return f
}

func (a *ToggleKeyAction) SetFields(f Fields) (err error) {
	a.Key, err = parseKeyStroke(f)
	return err
}

// TypeTextAction types a fixed string.
type TypeTextAction struct {
	instant
	Text string
}

func (a *TypeTextAction) Tag() string { return TagTypeText }

func (a *TypeTextAction) String() string {
	text := a.Text
	if r := []rune(text); len(r) > 20 {
		text = string(r[:20]) + "..."
	}
	return fmt.Sprintf("Type %q", text)
}

func (a *TypeTextAction) Start(h Handler, _ *EventArgs) {
	if a.Text != "" {
		h.TypeText(a.Text)
	}
}

func (a *TypeTextAction) Fields() Fields {
	return Fields{"text": a.Text}
}

func (a *TypeTextAction) SetFields(f Fields) error {
	a.Text = strings.ReplaceAll(f["text"], "\r\n", "\n")
	return nil
}
