package action

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Errors returned by action decoding.
var (
	// ErrUnknownTag indicates no action is registered for a tag.
	ErrUnknownTag = errors.New("unknown action tag")

	// ErrInvalidField indicates an attribute value could not be parsed.
	ErrInvalidField = errors.New("invalid action field")
)

// Action is one step of an ActionList.
type Action interface {
	// Tag returns the document element name of the action.
	Tag() string

	// String returns a short human-readable description.
	String() string

	// Start begins the action for the given event.
	Start(h Handler, args *EventArgs)

	// Continue advances an ongoing action by one dispatch cycle.
	Continue(h Handler, args *EventArgs)

	// Stop terminates an ongoing action.
	Stop(h Handler, args *EventArgs)

	// IsOngoing reports whether the action spans further cycles.
	IsOngoing() bool

	// Fields returns the persisted attributes of the action.
	Fields() Fields

	// SetFields restores the action from persisted attributes.
	SetFields(f Fields) error
}

// Resolver looks up display names of profile entities.
type Resolver interface {
	ModeName(id int64) (string, bool)
	AppName(id int64) (string, bool)
	PageName(id int64) (string, bool)
	WindowTitle(sourceID int64) (string, bool)
}

// Referrer is implemented by actions that reference profile entities.
type Referrer interface {
	// Resolve refreshes cached names from r and reports whether the
	// referenced entity still exists.
	Resolve(r Resolver) bool
}

// Fields holds the persisted attributes of an action.
type Fields map[string]string

// Int parses an integer field. Missing fields yield def.
func (f Fields) Int(key string, def int64) (int64, error) {
	s, ok := f[key]
	if !ok || s == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return def, fmt.Errorf("%w: %s=%q", ErrInvalidField, key, s)
	}
	return v, nil
}

// Bool parses a boolean field. Missing fields yield false.
func (f Fields) Bool(key string) (bool, error) {
	s, ok := f[key]
	if !ok || s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q", ErrInvalidField, key, s)
	}
	return v, nil
}

// SetInt stores an integer field.
func (f Fields) SetInt(key string, v int64) {
	f[key] = strconv.FormatInt(v, 10)
}

// SetBool stores a boolean field.
func (f Fields) SetBool(key string, v bool) {
	f[key] = strconv.FormatBool(v)
}

// Constructor creates an empty action.
type Constructor func() Action

var registry = map[string]Constructor{
	TagChangeMode:        func() Action { return &ChangeModeAction{} },
	TagChangeApp:         func() Action { return &ChangeAppAction{} },
	TagChangePage:        func() Action { return &ChangePageAction{} },
	TagPressKey:          func() Action { return &PressKeyAction{} },
	TagHoldKey:           func() Action { return &HoldKeyAction{} },
	TagReleaseKey:        func() Action { return &ReleaseKeyAction{} },
	TagToggleKey:         func() Action { return &ToggleKeyAction{} },
	TagTypeText:          func() Action { return &TypeTextAction{} },
	TagMouseButton:       func() Action { return &MouseButtonAction{} },
	TagWait:              func() Action { return &WaitAction{} },
	TagChangeWindowState: func() Action { return &ChangeWindowStateAction{} },
	TagStartProgram:      func() Action { return &StartProgramAction{} },
}

// New creates an empty action for a document tag.
func New(tag string) (Action, error) {
	ctor, ok := registry[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
	return ctor(), nil
}

// Decode creates an action from its tag and persisted attributes.
func Decode(tag string, f Fields) (Action, error) {
	a, err := New(tag)
	if err != nil {
		return nil, err
	}
	if err := a.SetFields(f); err != nil {
		return nil, fmt.Errorf("%s: %w", tag, err)
	}
	return a, nil
}

// Tags returns all registered tags in sorted order.
func Tags() []string {
	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// instant provides the lifecycle of actions that complete within Start.
type instant struct{}

func (instant) Continue(Handler, *EventArgs) {}
func (instant) Stop(Handler, *EventArgs)     {}
func (instant) IsOngoing() bool              { return false }
