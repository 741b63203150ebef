package action

import (
	"fmt"

	"github.com/dshills/inputmap/internal/event"
)

// Document tags of the state-changing actions.
const (
	TagChangeMode = "ChangeModeAction"
	TagChangeApp  = "ChangeAppAction"
	TagChangePage = "ChangePageAction"
)

// ChangeModeAction switches the current mode.
type ChangeModeAction struct {
	instant
	ModeID int64

	// ModeName is a cached display name, refreshed by Resolve.
	ModeName string
}

func (a *ChangeModeAction) Tag() string { return TagChangeMode }

func (a *ChangeModeAction) String() string {
	return fmt.Sprintf("Change mode to %s", displayName(a.ModeName, a.ModeID))
}

func (a *ChangeModeAction) Start(h Handler, _ *EventArgs) {
	h.ChangeState(event.LogicalState{ModeID: a.ModeID, AppID: event.NoneID, PageID: event.NoneID})
}

func (a *ChangeModeAction) Resolve(r Resolver) bool {
	name, ok := r.ModeName(a.ModeID)
	if ok {
		a.ModeName = name
	}
	return ok
}

func (a *ChangeModeAction) Fields() Fields {
	f := Fields{"modename": a.ModeName}
	f.SetInt("modeid", a.ModeID)
	return f
}

func (a *ChangeModeAction) SetFields(f Fields) error {
	id, err := f.Int("modeid", 0)
	if err != nil {
		return err
	}
	a.ModeID = id
	a.ModeName = f["modename"]
	return nil
}

// ChangeAppAction switches the current application context.
type ChangeAppAction struct {
	instant
	AppID   int64
	AppName string
}

func (a *ChangeAppAction) Tag() string { return TagChangeApp }

func (a *ChangeAppAction) String() string {
	return fmt.Sprintf("Change app to %s", displayName(a.AppName, a.AppID))
}

func (a *ChangeAppAction) Start(h Handler, _ *EventArgs) {
	h.ChangeState(event.LogicalState{ModeID: event.NoneID, AppID: a.AppID, PageID: event.NoneID})
}

func (a *ChangeAppAction) Resolve(r Resolver) bool {
	name, ok := r.AppName(a.AppID)
	if ok {
		a.AppName = name
	}
	return ok
}

func (a *ChangeAppAction) Fields() Fields {
	f := Fields{"appname": a.AppName}
	f.SetInt("appid", a.AppID)
	return f
}

func (a *ChangeAppAction) SetFields(f Fields) error {
	id, err := f.Int("appid", 0)
	if err != nil {
		return err
	}
	a.AppID = id
	a.AppName = f["appname"]
	return nil
}

// ChangePageAction switches the current page.
type ChangePageAction struct {
	instant
	PageID   int64
	PageName string
}

func (a *ChangePageAction) Tag() string { return TagChangePage }

func (a *ChangePageAction) String() string {
	return fmt.Sprintf("Change page to %s", displayName(a.PageName, a.PageID))
}

func (a *ChangePageAction) Start(h Handler, _ *EventArgs) {
	h.ChangeState(event.LogicalState{ModeID: event.NoneID, AppID: event.NoneID, PageID: a.PageID})
}

func (a *ChangePageAction) Resolve(r Resolver) bool {
	name, ok := r.PageName(a.PageID)
	if ok {
		a.PageName = name
	}
	return ok
}

func (a *ChangePageAction) Fields() Fields {
	f := Fields{"pagename": a.PageName}
	f.SetInt("pageid", a.PageID)
	return f
}

func (a *ChangePageAction) SetFields(f Fields) error {
	id, err := f.Int("pageid", 0)
	if err != nil {
		return err
	}
	a.PageID = id
	a.PageName = f["pagename"]
	return nil
}

func displayName(name string, id int64) string {
	if name != "" {
		return fmt.Sprintf("%q", name)
	}
	return fmt.Sprintf("#%d", id)
}
