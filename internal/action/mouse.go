package action

import (
	"fmt"
	"strings"
)

// TagMouseButton is the document tag of MouseButtonAction.
const TagMouseButton = "MouseButtonAction"

// MouseButton identifies a mouse button to inject.
type MouseButton uint8

const (
	MouseLeft MouseButton = iota + 1
	MouseMiddle
	MouseRight
	MouseX1
	MouseX2
)

var mouseButtonNames = map[MouseButton]string{
	MouseLeft:   "Left",
	MouseMiddle: "Middle",
	MouseRight:  "Right",
	MouseX1:     "X1",
	MouseX2:     "X2",
}

// String returns the document name of the button.
func (b MouseButton) String() string {
	if name, ok := mouseButtonNames[b]; ok {
		return name
	}
	return fmt.Sprintf("MouseButton(%d)", uint8(b))
}

// ParseMouseButton parses a mouse button name.
func ParseMouseButton(s string) (MouseButton, error) {
	for b, name := range mouseButtonNames {
		if strings.EqualFold(name, s) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: mouse button %q", ErrInvalidField, s)
}

// ButtonMode selects what a MouseButtonAction does with its button.
type ButtonMode uint8

const (
	ButtonClick ButtonMode = iota
	ButtonPress
	ButtonRelease
)

var buttonModeNames = []string{"Click", "Press", "Release"}

func (m ButtonMode) String() string {
	if int(m) < len(buttonModeNames) {
		return buttonModeNames[m]
	}
	return fmt.Sprintf("ButtonMode(%d)", uint8(m))
}

func parseButtonMode(s string) (ButtonMode, error) {
	if s == "" {
		return ButtonClick, nil
	}
	for i, name := range buttonModeNames {
		if strings.EqualFold(name, s) {
			return ButtonMode(i), nil
		}
	}
	return ButtonClick, fmt.Errorf("%w: button mode %q", ErrInvalidField, s)
}

// MouseButtonAction clicks, presses or releases a mouse button.
type MouseButtonAction struct {
	instant
	Button MouseButton
	Mode   ButtonMode
}

func (a *MouseButtonAction) Tag() string { return TagMouseButton }

func (a *MouseButtonAction) String() string {
	return fmt.Sprintf("%s %s mouse button", a.Mode, a.Button)
}

func (a *MouseButtonAction) Start(h Handler, _ *EventArgs) {
	switch a.Mode {
	case ButtonPress:
		h.MouseButton(a.Button, true)
	case ButtonRelease:
		h.MouseButton(a.Button, false)
	default:
		h.MouseButton(a.Button, true)
		h.MouseButton(a.Button, false)
	}
}

func (a *MouseButtonAction) Fields() Fields {
	return Fields{"button": a.Button.String(), "mode": a.Mode.String()}
}

func (a *MouseButtonAction) SetFields(f Fields) (err error) {
	if a.Button, err = ParseMouseButton(f["button"]); err != nil {
		return err
	}
	a.Mode, err = parseButtonMode(f["mode"])
	return err
}
