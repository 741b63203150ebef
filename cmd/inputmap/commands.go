package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dshills/inputmap/internal/action"
	"github.com/dshills/inputmap/internal/event"
	"github.com/dshills/inputmap/internal/profile"
)

// validate loads each profile and reports what loading changed. It fails
// if any profile could not be loaded.
func (c *cli) validate(args []string) error {
	fs := c.flagSet("validate", "<profile>...")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	failed := 0
	for _, name := range fs.Args() {
		path := c.cfg.ProfilePath(name)
		loaded, err := c.store.Load(path)
		if err != nil {
			fmt.Fprintf(c.out, "%s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(c.out, "%s: ok, %d action lists\n", path, loaded.Report.NumberedLists)
		c.printLoad(loaded)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d profiles failed to load", failed, fs.NArg())
	}
	return nil
}

func (c *cli) printLoad(loaded *profile.Loaded) {
	for _, r := range loaded.Upgrades {
		rules := "no rule file"
		if r.Rules >= 0 {
			rules = fmt.Sprintf("%d rule edits", r.Rules)
		}
		fmt.Fprintf(c.out, "  upgraded to %s: %s (%s)\n", r.Version, r.Description, rules)
	}
	if loaded.Report.Changed() {
		fmt.Fprintf(c.out, "  repaired: %s\n", loaded.Report)
	}
}

// upgrade rewrites a profile at the current schema version.
func (c *cli) upgrade(args []string) error {
	fs := c.flagSet("upgrade", "[-o file] [-n] <profile>")
	output := fs.String("o", "", "Write the upgraded profile here instead of in place")
	dryRun := fs.Bool("n", false, "Report what would change without writing")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	path := c.cfg.ProfilePath(fs.Arg(0))
	loaded, err := c.store.Load(path)
	if err != nil {
		return err
	}
	c.printLoad(loaded)

	target := path
	if *output != "" {
		target = c.cfg.Dirs().Resolve(*output)
	}
	if len(loaded.Upgrades) == 0 && !loaded.Report.Changed() && target == path {
		fmt.Fprintf(c.out, "%s: already current\n", path)
		return nil
	}
	if *dryRun {
		fmt.Fprintf(c.out, "%s: would write %s\n", path, target)
		return nil
	}
	if err := c.store.Save(target, loaded.Profile); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s: wrote %s\n", path, target)
	return nil
}

// bindings lists the action lists of a profile. With -state the lists
// that apply in that state are shown, Default fallbacks included. With
// -type only one control type is shown.
func (c *cli) bindings(args []string) error {
	fs := c.flagSet("bindings", "[-type controltype] [-state mode/app/page] <profile>")
	typeName := fs.String("type", "", "Only show this control type (Keyboard, MouseButtons, MousePointer, CustomButton)")
	stateArg := fs.String("state", "", "Show the lists in effect in this state, as mode/app/page IDs")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	var (
		ct      event.ControlType
		byType  = *typeName != ""
		byState = *stateArg != ""
		state   event.LogicalState
		err     error
	)
	if byType {
		if ct, err = event.ParseControlType(*typeName); err != nil {
			return err
		}
	}
	if byState {
		if state, err = parseState(*stateArg); err != nil {
			return err
		}
	}

	loaded, err := c.store.Load(c.cfg.ProfilePath(fs.Arg(0)))
	if err != nil {
		return err
	}
	p := loaded.Profile

	var lists []*action.ActionList
	switch {
	case byState:
		p.GetActionsForState(state, true).Each(func(k event.Key, l *action.ActionList) {
			if !byType || k.ControlType() == ct {
				lists = append(lists, l)
			}
		})
	case byType:
		p.GetActionsForControlType(ct).Each(func(_ event.Key, l *action.ActionList) {
			lists = append(lists, l)
		})
	default:
		p.EachActionList(func(l *action.ActionList) { lists = append(lists, l) })
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATE\tEVENT\tMODE\tACTIONS")
	for _, l := range lists {
		if l.IsEmpty() {
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", l.ID, stateName(p, l.State), l.Event, l.Mode, actionSummary(l))
	}
	return w.Flush()
}

// parseState parses "mode/app/page" IDs.
func parseState(s string) (event.LogicalState, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return event.LogicalState{}, fmt.Errorf("state %q: want mode/app/page", s)
	}
	var ids [3]int64
	for i, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return event.LogicalState{}, fmt.Errorf("state %q: %w", s, err)
		}
		ids[i] = id
	}
	return event.LogicalState{ModeID: ids[0], AppID: ids[1], PageID: ids[2]}, nil
}

func stateName(p *profile.Profile, s event.LogicalState) string {
	mode, _ := p.ModeName(s.ModeID)
	app, _ := p.AppName(s.AppID)
	page, _ := p.PageName(s.PageID)
	return mode + "/" + app + "/" + page
}

func actionSummary(l *action.ActionList) string {
	actions := l.Actions()
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = a.String()
	}
	return strings.Join(parts, "; ")
}
