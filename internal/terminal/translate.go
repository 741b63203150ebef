package terminal

import (
	"sort"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/inputmap/internal/action"
	"github.com/dshills/inputmap/internal/event"
	"github.com/dshills/inputmap/internal/profile"
)

// DefaultHoldTimeout is how long a key counts as held after its last
// press or repeat. Terminals report no key releases, so a release is
// synthesized once it elapses.
const DefaultHoldTimeout = 600 * time.Millisecond

// Windows virtual key codes of the non-character keys a terminal reports.
const (
	vkBack   = 0x08
	vkTab    = 0x09
	vkReturn = 0x0D
	vkEscape = 0x1B
	vkSpace  = 0x20
	vkPrior  = 0x21
	vkNext   = 0x22
	vkEnd    = 0x23
	vkHome   = 0x24
	vkLeft   = 0x25
	vkUp     = 0x26
	vkRight  = 0x27
	vkDown   = 0x28
	vkInsert = 0x2D
	vkDelete = 0x2E
	vkF1     = 0x70
)

type keyCode struct {
	vk       int
	scanCode int
}

// Extended keys carry their set 1 scan code with the extended flag.
var specialKeys = map[tcell.Key]keyCode{
	tcell.KeyBackspace:  {vkBack, 0x0E},
	tcell.KeyBackspace2: {vkBack, 0x0E},
	tcell.KeyTab:        {vkTab, 0x0F},
	tcell.KeyEnter:      {vkReturn, 0x1C},
	tcell.KeyEscape:     {vkEscape, 0x01},
	tcell.KeyPgUp:       {vkPrior, action.ExtendedFlag | 0x49},
	tcell.KeyPgDn:       {vkNext, action.ExtendedFlag | 0x51},
	tcell.KeyEnd:        {vkEnd, action.ExtendedFlag | 0x4F},
	tcell.KeyHome:       {vkHome, action.ExtendedFlag | 0x47},
	tcell.KeyLeft:       {vkLeft, action.ExtendedFlag | 0x4B},
	tcell.KeyUp:         {vkUp, action.ExtendedFlag | 0x48},
	tcell.KeyRight:      {vkRight, action.ExtendedFlag | 0x4D},
	tcell.KeyDown:       {vkDown, action.ExtendedFlag | 0x50},
	tcell.KeyInsert:     {vkInsert, action.ExtendedFlag | 0x52},
	tcell.KeyDelete:     {vkDelete, action.ExtendedFlag | 0x53},
}

// virtualKey maps a terminal key event to a virtual key code. Letters map
// to their upper case code regardless of shift; control chords map to the
// letter.
func virtualKey(ev *tcell.EventKey) (keyCode, bool) {
	k := ev.Key()
	switch {
	case k == tcell.KeyRune:
		r := ev.Rune()
		switch {
		case r >= 'a' && r <= 'z':
			return keyCode{vk: int(r - 'a' + 'A')}, true
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return keyCode{vk: int(r)}, true
		case r == ' ':
			return keyCode{vk: vkSpace, scanCode: 0x39}, true
		}
		return keyCode{}, false
	case k >= tcell.KeyF1 && k <= tcell.KeyF12:
		return keyCode{vk: vkF1 + int(k-tcell.KeyF1)}, true
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		if code, ok := specialKeys[k]; ok {
			return code, true
		}
		return keyCode{vk: 'A' + int(k-tcell.KeyCtrlA)}, true
	}
	code, ok := specialKeys[k]
	return code, ok
}

// mouseButtons pairs tcell button bits with the button IDs used in
// profiles.
var mouseButtons = []struct {
	mask tcell.ButtonMask
	id   uint8
}{
	{tcell.Button1, uint8(action.MouseLeft)},
	{tcell.Button3, uint8(action.MouseMiddle)},
	{tcell.Button2, uint8(action.MouseRight)},
}

var wheels = []struct {
	mask tcell.ButtonMask
	dir  event.LRUD
}{
	{tcell.WheelUp, event.LRUDUp},
	{tcell.WheelDown, event.LRUDDown},
	{tcell.WheelLeft, event.LRUDLeft},
	{tcell.WheelRight, event.LRUDRight},
}

// Translator turns terminal events into event descriptors for the
// keyboard and mouse sources of a profile. It keeps the key, button and
// region state needed to report releases and region crossings. It is not
// safe for concurrent use.
type Translator struct {
	// HoldTimeout is how long a key stays held without a repeat.
	HoldTimeout time.Duration

	keyboard int64
	mouse    int64
	regions  *profile.Regions
	state    event.LogicalState

	width, height int
	held          map[int]time.Time
	buttons       tcell.ButtonMask
	inside        map[int64]bool
	lastX, lastY  int
	seen          bool
}

// NewTranslator creates a translator for p.
func NewTranslator(p *profile.Profile) *Translator {
	t := &Translator{
		HoldTimeout: DefaultHoldTimeout,
		held:        make(map[int]time.Time),
		inside:      make(map[int64]bool),
		lastX:       -1,
		lastY:       -1,
	}
	t.SetProfile(p)
	return t
}

// SetProfile picks the first keyboard and mouse sources of p. Events for
// a device the profile has no source for are dropped.
func (t *Translator) SetProfile(p *profile.Profile) {
	t.keyboard, t.mouse, t.regions = 0, 0, nil
	t.inside = make(map[int64]bool)
	if p == nil {
		return
	}
	t.regions = p.Regions
	for _, s := range p.Sources() {
		switch s.(type) {
		case *profile.KeyboardSource:
			if t.keyboard == 0 {
				t.keyboard = s.ID()
			}
		case *profile.MouseSource:
			if t.mouse == 0 {
				t.mouse = s.ID()
			}
		}
	}
}

// SetState sets the logical state used to filter visible regions.
func (t *Translator) SetState(s event.LogicalState) {
	t.state = s
}

// SetSize sets the screen size pointer positions are scaled by.
func (t *Translator) SetSize(width, height int) {
	t.width, t.height = width, height
}

// Translate converts one terminal event. It may return no descriptors.
func (t *Translator) Translate(ev tcell.Event, now time.Time) []event.Descriptor {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return t.key(e, now)
	case *tcell.EventMouse:
		return t.mouseEvent(e)
	case *tcell.EventResize:
		t.SetSize(e.Size())
	}
	return nil
}

func (t *Translator) key(ev *tcell.EventKey, now time.Time) []event.Descriptor {
	if t.keyboard == 0 {
		return nil
	}
	code, ok := virtualKey(ev)
	if !ok {
		return nil
	}
	reason := event.ReasonPressed
	if _, down := t.held[code.vk]; down {
		reason = event.ReasonRepeated
	}
	t.held[code.vk] = now
	return []event.Descriptor{t.keyDescriptor(code, reason)}
}

func (t *Translator) keyDescriptor(code keyCode, reason event.Reason) event.Descriptor {
	return event.Descriptor{
		SourceID:    t.keyboard,
		ControlType: event.ControlKeyboard,
		Data:        code.vk,
		ExtraData:   code.scanCode,
		Reason:      reason,
	}
}

// Expire reports releases for keys not pressed or repeated within the
// hold timeout, in key code order.
func (t *Translator) Expire(now time.Time) []event.Descriptor {
	var codes []int
	for vk, last := range t.held {
		if now.Sub(last) >= t.HoldTimeout {
			codes = append(codes, vk)
		}
	}
	sort.Ints(codes)

	out := make([]event.Descriptor, 0, len(codes))
	for _, vk := range codes {
		delete(t.held, vk)
		out = append(out, t.keyDescriptor(keyCode{vk: vk}, event.ReasonReleased))
	}
	return out
}

// Held reports how many keys are currently held.
func (t *Translator) Held() int {
	return len(t.held)
}

func (t *Translator) mouseEvent(ev *tcell.EventMouse) []event.Descriptor {
	if t.mouse == 0 {
		return nil
	}
	var out []event.Descriptor
	mask := ev.Buttons()

	for _, b := range mouseButtons {
		was, is := t.buttons&b.mask != 0, mask&b.mask != 0
		if was == is {
			continue
		}
		reason := event.ReasonReleased
		if is {
			reason = event.ReasonPressed
		}
		out = append(out, event.Descriptor{
			SourceID:    t.mouse,
			ControlType: event.ControlMouseButtons,
			ButtonID:    b.id,
			Reason:      reason,
		})
	}
	t.buttons = mask & (tcell.Button1 | tcell.Button2 | tcell.Button3)

	for _, w := range wheels {
		if mask&w.mask != 0 {
			out = append(out, event.Descriptor{
				SourceID:    t.mouse,
				ControlType: event.ControlMouseButtons,
				LRUD:        w.dir,
				Reason:      event.ReasonPressed,
			})
		}
	}

	x, y := ev.Position()
	if !t.seen || x != t.lastX || y != t.lastY {
		t.seen = true
		t.lastX, t.lastY = x, y
		out = append(out, t.pointer(x, y)...)
	}
	return out
}

// pointer reports region exits, then region entries, then the move
// itself.
func (t *Translator) pointer(x, y int) []event.Descriptor {
	var out []event.Descriptor
	now := make(map[int64]bool)
	if t.regions != nil && t.width > 0 && t.height > 0 {
		fx := (float64(x) + 0.5) / float64(t.width)
		fy := (float64(y) + 0.5) / float64(t.height)
		for _, r := range t.regions.At(fx, fy, t.state) {
			now[r.ID] = true
		}
	}

	for _, id := range sortedKeys(t.inside) {
		if !now[id] {
			out = append(out, t.pointerDescriptor(id, event.ReasonOutside))
		}
	}
	for _, id := range sortedKeys(now) {
		if !t.inside[id] {
			out = append(out, t.pointerDescriptor(id, event.ReasonInside))
		}
	}
	t.inside = now
	return append(out, t.pointerDescriptor(0, event.ReasonMoved))
}

func (t *Translator) pointerDescriptor(region int64, reason event.Reason) event.Descriptor {
	return event.Descriptor{
		SourceID:    t.mouse,
		ControlType: event.ControlMousePointer,
		Data:        int(region),
		Reason:      reason,
	}
}

func sortedKeys(m map[int64]bool) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
