package event

import (
	"fmt"
	"strings"
)

// ControlType identifies the class of control that produced an event.
type ControlType uint8

const (
	// ControlNone is an unset control type.
	ControlNone ControlType = iota
	// ControlMousePointer is pointer movement relative to screen regions.
	ControlMousePointer
	// ControlMouseButtons is a mouse button or wheel.
	ControlMouseButtons
	// ControlKeyboard is a keyboard key.
	ControlKeyboard
	// ControlCustomButton is a button on a custom on-screen window.
	ControlCustomButton
)

var controlTypeNames = []string{"None", "MousePointer", "MouseButtons", "Keyboard", "CustomButton"}

// String returns the document name of the control type.
func (c ControlType) String() string {
	if int(c) < len(controlTypeNames) {
		return controlTypeNames[c]
	}
	return fmt.Sprintf("ControlType(%d)", uint8(c))
}

// ParseControlType parses a control type name. Matching is case-insensitive.
func ParseControlType(s string) (ControlType, error) {
	for i, name := range controlTypeNames {
		if strings.EqualFold(name, s) {
			return ControlType(i), nil
		}
	}
	return ControlNone, fmt.Errorf("unknown control type %q", s)
}

// Side disambiguates left and right variants of a control.
type Side uint8

const (
	SideNone Side = iota
	SideLeft
	SideRight
)

var sideNames = []string{"None", "Left", "Right"}

// String returns the document name of the side.
func (s Side) String() string {
	if int(s) < len(sideNames) {
		return sideNames[s]
	}
	return fmt.Sprintf("Side(%d)", uint8(s))
}

// ParseSide parses a side name.
func ParseSide(s string) (Side, error) {
	for i, name := range sideNames {
		if strings.EqualFold(name, s) {
			return Side(i), nil
		}
	}
	return SideNone, fmt.Errorf("unknown side %q", s)
}

// LRUD is a left/right/up/down directional state.
type LRUD uint8

const (
	LRUDNone LRUD = iota
	LRUDLeft
	LRUDRight
	LRUDUp
	LRUDDown
)

var lrudNames = []string{"None", "Left", "Right", "Up", "Down"}

// String returns the document name of the direction.
func (d LRUD) String() string {
	if int(d) < len(lrudNames) {
		return lrudNames[d]
	}
	return fmt.Sprintf("LRUD(%d)", uint8(d))
}

// ParseLRUD parses a direction name.
func ParseLRUD(s string) (LRUD, error) {
	for i, name := range lrudNames {
		if strings.EqualFold(name, s) {
			return LRUD(i), nil
		}
	}
	return LRUDNone, fmt.Errorf("unknown direction %q", s)
}

// Reason is why an event fired.
type Reason uint32

const (
	ReasonNone Reason = iota
	ReasonPressed
	ReasonReleased
	ReasonMoved
	ReasonUpdated
	ReasonInside
	ReasonOutside
	ReasonRepeated
)

var reasonNames = []string{"None", "Pressed", "Released", "Moved", "Updated", "Inside", "Outside", "Repeated"}

// String returns the document name of the reason.
func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return fmt.Sprintf("Reason(%d)", uint32(r))
}

// ParseReason parses a reason name.
func ParseReason(s string) (Reason, error) {
	for i, name := range reasonNames {
		if strings.EqualFold(name, s) {
			return Reason(i), nil
		}
	}
	return ReasonNone, fmt.Errorf("unknown event reason %q", s)
}
