// Package event provides the identity types shared by the mapping engine.
//
// An input event is described by a Descriptor: the input source it came from,
// the kind of control that produced it, an optional side, button and
// direction, an auxiliary data byte and the reason the event fired. A
// Descriptor packs into a single ordered integer Key which is used as the
// lookup key in mapping tables:
//
//	bits  0-3   source ID (low nibble)
//	bits  4-7   control type
//	bits  8-11  side
//	bits 12-15  button ID
//	bits 16-19  left/right/up/down state
//	bits 20-27  data
//	bits 28-    reason
//
// Every field is masked to its width when packing. Values that do not fit
// are truncated silently so that documents written by older versions keep
// their keys; Descriptor.Overflow reports such values for diagnostics.
//
// The low 28 bits of a Key form its control identity (Key.ControlID): all
// events of one control share it regardless of whether the control was
// pressed, released or moved.
//
// LogicalState selects which mapping layer applies: a mode, an
// application and a page. ID 0 is the Default entry at every level.
package event
