package event

import "fmt"

const (
	// DefaultID is the reserved ID of the Default mode, app and page.
	DefaultID int64 = 0

	// NoneID marks a state component as not applicable.
	NoneID int64 = -1
)

// LogicalState selects the mapping layer that applies to incoming events.
type LogicalState struct {
	ModeID int64
	AppID  int64
	PageID int64
}

// DefaultState returns the Default mode, app and page.
func DefaultState() LogicalState {
	return LogicalState{}
}

// NoState returns a state where every component is not applicable.
func NoState() LogicalState {
	return LogicalState{ModeID: NoneID, AppID: NoneID, PageID: NoneID}
}

// Matches reports whether s satisfies the filter f. A NoneID component in f
// matches anything.
func (s LogicalState) Matches(f LogicalState) bool {
	return (f.ModeID == NoneID || f.ModeID == s.ModeID) &&
		(f.AppID == NoneID || f.AppID == s.AppID) &&
		(f.PageID == NoneID || f.PageID == s.PageID)
}

// String returns "mode/app/page".
func (s LogicalState) String() string {
	return fmt.Sprintf("%d/%d/%d", s.ModeID, s.AppID, s.PageID)
}
