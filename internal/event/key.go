package event

import (
	"errors"
	"fmt"
)

// Field widths and offsets of the packed key.
const (
	sourceShift  = 0
	controlShift = 4
	sideShift    = 8
	buttonShift  = 12
	lrudShift    = 16
	dataShift    = 20
	reasonShift  = 28

	nibbleMask = 0xF
	byteMask   = 0xFF

	// controlIDMask selects every field except the reason.
	controlIDMask = (1 << reasonShift) - 1

	// maxReason is the largest reason that survives a round trip through Key.
	maxReason = (1 << (63 - reasonShift)) - 1
)

// ErrFieldOverflow indicates a descriptor field does not fit its slot in the key.
var ErrFieldOverflow = errors.New("event field overflow")

// Key is the packed identity of an input event.
type Key int64

// Descriptor describes an input event.
type Descriptor struct {
	SourceID    int64
	ControlType ControlType
	Side        Side
	ButtonID    uint8
	LRUD        LRUD
	Data        int
	Reason      Reason

	// ExtraData carries the keyboard scan code. It is not part of the key:
	// it only serves to normalize layout differences and never affects lookup.
	ExtraData int

	// Name is an optional display name for the event.
	Name string
}

// ToID packs the descriptor into a Key. Each field is masked to its width.
func (d Descriptor) ToID() Key {
	id := (d.SourceID & nibbleMask) << sourceShift
	id |= (int64(d.ControlType) & nibbleMask) << controlShift
	id |= (int64(d.Side) & nibbleMask) << sideShift
	id |= (int64(d.ButtonID) & nibbleMask) << buttonShift
	id |= (int64(d.LRUD) & nibbleMask) << lrudShift
	id |= (int64(d.Data) & byteMask) << dataShift
	id |= (int64(d.Reason) & maxReason) << reasonShift
	return Key(id)
}

// FromID unpacks a Key. ExtraData and Name are left empty.
func FromID(k Key) Descriptor {
	id := int64(k)
	return Descriptor{
		SourceID:    (id >> sourceShift) & nibbleMask,
		ControlType: ControlType((id >> controlShift) & nibbleMask),
		Side:        Side((id >> sideShift) & nibbleMask),
		ButtonID:    uint8((id >> buttonShift) & nibbleMask),
		LRUD:        LRUD((id >> lrudShift) & nibbleMask),
		Data:        int((id >> dataShift) & byteMask),
		Reason:      Reason((id >> reasonShift) & maxReason),
	}
}

// ControlID returns the reason-independent identity of the control.
func (d Descriptor) ControlID() Key {
	return d.ToID().ControlID()
}

// WithReason returns a copy of the descriptor with a different reason.
func (d Descriptor) WithReason(r Reason) Descriptor {
	d.Reason = r
	return d
}

// Overflow reports the first field whose value does not fit its slot.
// ToID truncates such values; callers use this only to warn.
func (d Descriptor) Overflow() error {
	switch {
	case d.SourceID < 0 || d.SourceID > nibbleMask:
		return fmt.Errorf("%w: source id %d", ErrFieldOverflow, d.SourceID)
	case d.ControlType > nibbleMask:
		return fmt.Errorf("%w: control type %d", ErrFieldOverflow, d.ControlType)
	case d.Side > nibbleMask:
		return fmt.Errorf("%w: side %d", ErrFieldOverflow, d.Side)
	case d.ButtonID > nibbleMask:
		return fmt.Errorf("%w: button id %d", ErrFieldOverflow, d.ButtonID)
	case d.LRUD > nibbleMask:
		return fmt.Errorf("%w: direction %d", ErrFieldOverflow, d.LRUD)
	case d.Data < 0 || d.Data > byteMask:
		return fmt.Errorf("%w: data %d", ErrFieldOverflow, d.Data)
	}
	return nil
}

// String returns a compact representation for logs.
func (d Descriptor) String() string {
	if d.Name != "" {
		return fmt.Sprintf("%s(%s)", d.Name, d.Reason)
	}
	return fmt.Sprintf("src%d/%s/%s/b%d/%s/d%d/%s",
		d.SourceID, d.ControlType, d.Side, d.ButtonID, d.LRUD, d.Data, d.Reason)
}

// ControlID masks out the reason field.
func (k Key) ControlID() Key {
	return k & controlIDMask
}

// ControlType returns the control type encoded in the key.
func (k Key) ControlType() ControlType {
	return ControlType((int64(k) >> controlShift) & nibbleMask)
}

// Reason returns the reason encoded in the key.
func (k Key) Reason() Reason {
	return Reason((int64(k) >> reasonShift) & maxReason)
}

// SourceID returns the source nibble encoded in the key.
func (k Key) SourceID() int64 {
	return (int64(k) >> sourceShift) & nibbleMask
}

// Data returns the data byte encoded in the key.
func (k Key) Data() int {
	return int((int64(k) >> dataShift) & byteMask)
}
