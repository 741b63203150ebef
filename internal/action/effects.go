package action

import (
	"fmt"
	"sync"
)

// Effect is one output request recorded by an EffectLog.
type Effect struct {
	Kind    string
	Detail  string
	Pressed bool
}

// String returns "kind detail".
func (e Effect) String() string {
	return e.Kind + " " + e.Detail
}

// EffectLog is an Output that records effects instead of performing them.
// It backs dry runs and the terminal front-end.
type EffectLog struct {
	mu      sync.Mutex
	effects []Effect
	limit   int
}

// NewEffectLog creates a log keeping at most limit effects. A limit of 0
// keeps everything.
func NewEffectLog(limit int) *EffectLog {
	return &EffectLog{limit: limit}
}

func (l *EffectLog) record(e Effect) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.effects = append(l.effects, e)
	if l.limit > 0 && len(l.effects) > l.limit {
		l.effects = l.effects[len(l.effects)-l.limit:]
	}
}

func (l *EffectLog) SendKey(k KeyStroke, pressed bool) {
	kind := "key-up"
	if pressed {
		kind = "key-down"
	}
	l.record(Effect{Kind: kind, Detail: k.String(), Pressed: pressed})
}

func (l *EffectLog) TypeText(text string) {
	l.record(Effect{Kind: "type", Detail: fmt.Sprintf("%q", text)})
}

func (l *EffectLog) MouseButton(b MouseButton, pressed bool) {
	kind := "mouse-up"
	if pressed {
		kind = "mouse-down"
	}
	l.record(Effect{Kind: kind, Detail: b.String(), Pressed: pressed})
}

func (l *EffectLog) SetWindowState(windowID int64, state WindowState) {
	l.record(Effect{Kind: "window", Detail: fmt.Sprintf("%d %s", windowID, state)})
}

func (l *EffectLog) StartProgram(path, args string) {
	l.record(Effect{Kind: "start", Detail: path + " " + args})
}

// Effects returns a copy of the recorded effects.
func (l *EffectLog) Effects() []Effect {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Effect, len(l.effects))
	copy(out, l.effects)
	return out
}

// Reset discards recorded effects.
func (l *EffectLog) Reset() {
	l.mu.Lock()
	l.effects = nil
	l.mu.Unlock()
}

var _ Output = (*EffectLog)(nil)
