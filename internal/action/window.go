package action

import (
	"fmt"
	"strings"
)

// Document tags of the window and program actions.
const (
	TagChangeWindowState = "ChangeWindowStateAction"
	TagStartProgram      = "StartProgramAction"
)

// WindowState is the requested state of a custom window.
type WindowState uint8

const (
	WindowShow WindowState = iota
	WindowHide
	WindowToggle
	WindowMinimize
	WindowRestore
)

var windowStateNames = []string{"Show", "Hide", "Toggle", "Minimize", "Restore"}

func (s WindowState) String() string {
	if int(s) < len(windowStateNames) {
		return windowStateNames[s]
	}
	return fmt.Sprintf("WindowState(%d)", uint8(s))
}

// ParseWindowState parses a window state name.
func ParseWindowState(s string) (WindowState, error) {
	for i, name := range windowStateNames {
		if strings.EqualFold(name, s) {
			return WindowState(i), nil
		}
	}
	return WindowShow, fmt.Errorf("%w: window state %q", ErrInvalidField, s)
}

// ChangeWindowStateAction shows, hides or toggles a custom window.
type ChangeWindowStateAction struct {
	instant

	// WindowID is the ID of the custom window input source.
	WindowID int64

	// Title is a cached display name, refreshed by Resolve.
	Title string

	State WindowState
}

func (a *ChangeWindowStateAction) Tag() string { return TagChangeWindowState }

func (a *ChangeWindowStateAction) String() string {
	return fmt.Sprintf("%s window %s", a.State, displayName(a.Title, a.WindowID))
}

func (a *ChangeWindowStateAction) Start(h Handler, _ *EventArgs) {
	h.SetWindowState(a.WindowID, a.State)
}

func (a *ChangeWindowStateAction) Resolve(r Resolver) bool {
	title, ok := r.WindowTitle(a.WindowID)
	if ok {
		a.Title = title
	}
	return ok
}

func (a *ChangeWindowStateAction) Fields() Fields {
	f := Fields{"windowtitle": a.Title, "state": a.State.String()}
	f.SetInt("windowid", a.WindowID)
	return f
}

func (a *ChangeWindowStateAction) SetFields(f Fields) (err error) {
	if a.WindowID, err = f.Int("windowid", 0); err != nil {
		return err
	}
	a.Title = f["windowtitle"]
	if s := f["state"]; s != "" {
		a.State, err = ParseWindowState(s)
	}
	return err
}

// StartProgramAction launches a program.
type StartProgramAction struct {
	instant
	Path string
	Args string
}

func (a *StartProgramAction) Tag() string { return TagStartProgram }

func (a *StartProgramAction) String() string {
	return fmt.Sprintf("Start %s", a.Path)
}

func (a *StartProgramAction) Start(h Handler, _ *EventArgs) {
	if a.Path != "" {
		h.StartProgram(a.Path, a.Args)
	}
}

func (a *StartProgramAction) Fields() Fields {
	return Fields{"path": a.Path, "args": a.Args}
}

func (a *StartProgramAction) SetFields(f Fields) error {
	a.Path = strings.TrimSpace(f["path"])
	if a.Path == "" {
		return fmt.Errorf("%w: missing path", ErrInvalidField)
	}
	a.Args = f["args"]
	return nil
}
