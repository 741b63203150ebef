package profile

import (
	"fmt"
	"sort"

	"github.com/beevik/etree"
	"github.com/dshills/inputmap/internal/event"
)

// Document tags of the input sources.
const (
	TagMouseSource        = "MouseSource"
	TagKeyboardSource     = "KeyboardSource"
	TagCustomWindowSource = "CustomWindowSource"
)

// MaxSourceID is the largest source ID that fits an event key.
const MaxSourceID = 15

// Lookup is the view of its owning profile that an input source may use.
// It is a non-owning handle: sources never keep the profile alive or
// modify it.
type Lookup interface {
	HasRegion(id int64) bool
}

// Source is an input source: a device or on-screen window producing events.
type Source interface {
	// ID returns the source ID (1..MaxSourceID).
	ID() int64

	// Name returns the display name.
	Name() string

	// Tag returns the document element name of the source.
	Tag() string

	// ControlTypes returns the classes of control the source has.
	ControlTypes() []event.ControlType

	// Accepts reports whether d refers to a control the source has.
	Accepts(d event.Descriptor) bool

	base() *sourceBase
	encode(e *etree.Element)
	decode(e *etree.Element) error
}

type sourceBase struct {
	id     int64
	name   string
	lookup Lookup
}

func (s *sourceBase) ID() int64           { return s.id }
func (s *sourceBase) Name() string        { return s.name }
func (s *sourceBase) SetName(name string) { s.name = name }
func (s *sourceBase) base() *sourceBase   { return s }

func (s *sourceBase) encodeBase(e *etree.Element) {
	e.CreateAttr("id", formatInt(s.id))
	e.CreateAttr("name", s.name)
}

func (s *sourceBase) decodeBase(e *etree.Element) (err error) {
	if s.id, err = attrInt(e, "id", 0); err != nil {
		return err
	}
	s.name = e.SelectAttrValue("name", "")
	return nil
}

func hasControlType(s Source, ct event.ControlType) bool {
	for _, c := range s.ControlTypes() {
		if c == ct {
			return true
		}
	}
	return false
}

// MouseSource is the system mouse.
type MouseSource struct {
	sourceBase
}

// NewMouseSource creates a mouse source. An ID of 0 is assigned on AddSource.
func NewMouseSource(id int64, name string) *MouseSource {
	return &MouseSource{sourceBase{id: id, name: name}}
}

// Tag returns the document tag of the mouse source.
func (s *MouseSource) Tag() string { return TagMouseSource }

// ControlTypes lists the controls the mouse reports.
func (s *MouseSource) ControlTypes() []event.ControlType {
	return []event.ControlType{event.ControlMousePointer, event.ControlMouseButtons}
}

// Accepts checks the control type, and for pointer events bound to a screen
// region, that the region still exists.
func (s *MouseSource) Accepts(d event.Descriptor) bool {
	switch d.ControlType {
	case event.ControlMousePointer:
		if d.Data == 0 {
			return true
		}
		return s.lookup != nil && s.lookup.HasRegion(int64(d.Data))
	case event.ControlMouseButtons:
		return true
	}
	return false
}

func (s *MouseSource) encode(e *etree.Element)       { s.encodeBase(e) }
func (s *MouseSource) decode(e *etree.Element) error { return s.decodeBase(e) }

// KeyboardSource is the system keyboard.
type KeyboardSource struct {
	sourceBase
}

// NewKeyboardSource creates a keyboard source.
func NewKeyboardSource(id int64, name string) *KeyboardSource {
	return &KeyboardSource{sourceBase{id: id, name: name}}
}

// Tag returns the document tag of the keyboard source.
func (s *KeyboardSource) Tag() string { return TagKeyboardSource }

// ControlTypes lists the controls the keyboard reports.
func (s *KeyboardSource) ControlTypes() []event.ControlType {
	return []event.ControlType{event.ControlKeyboard}
}

// Accepts reports whether d is a keyboard event.
func (s *KeyboardSource) Accepts(d event.Descriptor) bool {
	return d.ControlType == event.ControlKeyboard
}

func (s *KeyboardSource) encode(e *etree.Element)       { s.encodeBase(e) }
func (s *KeyboardSource) decode(e *etree.Element) error { return s.decodeBase(e) }

// CustomButton is a button on a custom window. Geometry is in window
// fractions.
type CustomButton struct {
	ID     int64
	Name   string
	Bounds Rect
}

// CustomWindowSource is an on-screen window of custom buttons.
type CustomWindowSource struct {
	sourceBase

	Title           string
	Bounds          Rect
	BackgroundImage string
	Translucency    float64
	TopMost         bool

	buttons map[int64]*CustomButton
}

// NewCustomWindowSource creates a custom window with no buttons.
func NewCustomWindowSource(id int64, name, title string) *CustomWindowSource {
	return &CustomWindowSource{
		sourceBase: sourceBase{id: id, name: name},
		Title:      title,
		buttons:    make(map[int64]*CustomButton),
	}
}

// Tag returns the document tag of the custom window.
func (s *CustomWindowSource) Tag() string { return TagCustomWindowSource }

// ControlTypes lists the controls a custom window reports.
func (s *CustomWindowSource) ControlTypes() []event.ControlType {
	return []event.ControlType{event.ControlCustomButton}
}

// Accepts checks that d refers to an existing button. The button ID is
// carried in the data field.
func (s *CustomWindowSource) Accepts(d event.Descriptor) bool {
	if d.ControlType != event.ControlCustomButton {
		return false
	}
	_, ok := s.buttons[int64(d.Data)]
	return ok
}

// AddButton adds or replaces a button. Button IDs must fit the event data
// field (1..255).
func (s *CustomWindowSource) AddButton(b CustomButton) error {
	if b.ID < 1 || b.ID > 255 {
		return fmt.Errorf("button id %d out of range [1,255]", b.ID)
	}
	s.buttons[b.ID] = &b
	return nil
}

// RemoveButton deletes a button.
func (s *CustomWindowSource) RemoveButton(id int64) bool {
	if _, ok := s.buttons[id]; !ok {
		return false
	}
	delete(s.buttons, id)
	return true
}

// Button returns a button by ID.
func (s *CustomWindowSource) Button(id int64) (CustomButton, bool) {
	b, ok := s.buttons[id]
	if !ok {
		return CustomButton{}, false
	}
	return *b, true
}

// Buttons returns the buttons in ascending ID order.
func (s *CustomWindowSource) Buttons() []CustomButton {
	ids := make([]int64, 0, len(s.buttons))
	for id := range s.buttons {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]CustomButton, len(ids))
	for i, id := range ids {
		out[i] = *s.buttons[id]
	}
	return out
}

func (s *CustomWindowSource) encode(e *etree.Element) {
	s.encodeBase(e)
	e.CreateAttr("title", s.Title)
	s.Bounds.encode(e)
	if s.BackgroundImage != "" {
		e.CreateAttr("backgroundimage", s.BackgroundImage)
	}
	e.CreateAttr("translucency", formatFloat(s.Translucency))
	e.CreateAttr("topmost", formatBool(s.TopMost))
	for _, b := range s.Buttons() {
		be := e.CreateElement("button")
		be.CreateAttr("id", formatInt(b.ID))
		be.CreateAttr("name", b.Name)
		b.Bounds.encode(be)
	}
}

func (s *CustomWindowSource) decode(e *etree.Element) (err error) {
	if err = s.decodeBase(e); err != nil {
		return err
	}
	s.Title = e.SelectAttrValue("title", s.name)
	if s.Bounds, err = decodeRect(e); err != nil {
		return err
	}
	s.BackgroundImage = e.SelectAttrValue("backgroundimage", "")
	if s.Translucency, err = attrFloat(e, "translucency", 0); err != nil {
		return err
	}
	if s.TopMost, err = attrBool(e, "topmost"); err != nil {
		return err
	}
	s.buttons = make(map[int64]*CustomButton)
	for _, be := range e.SelectElements("button") {
		var b CustomButton
		if b.ID, err = attrInt(be, "id", 0); err != nil {
			return err
		}
		b.Name = be.SelectAttrValue("name", "")
		if b.Bounds, err = decodeRect(be); err != nil {
			return err
		}
		if err := s.AddButton(b); err != nil {
			return err
		}
	}
	return nil
}

var sourceRegistry = map[string]func() Source{
	TagMouseSource:        func() Source { return &MouseSource{} },
	TagKeyboardSource:     func() Source { return &KeyboardSource{} },
	TagCustomWindowSource: func() Source { return &CustomWindowSource{buttons: make(map[int64]*CustomButton)} },
}

func newSource(tag string) (Source, error) {
	ctor, ok := sourceRegistry[tag]
	if !ok {
		return nil, fmt.Errorf("unknown input source %q", tag)
	}
	return ctor(), nil
}
