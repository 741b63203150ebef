// Package action provides the actions that input events are mapped to and
// the ActionList execution state machine.
//
// An Action is a single step: press a key, change the current mode, wait for
// a while. Some actions complete as soon as they are started; others are
// ongoing and span several dispatch cycles until they complete on their own
// (WaitAction) or are stopped (HoldKeyAction).
//
// An ActionList runs its actions either in Series, where each action waits
// for the previous one to finish, or in Parallel, where all actions start
// together. The caller drives a list with exactly one of Start, Continue or
// Stop per dispatch cycle:
//
//	list.Start(h, args)
//	for list.IsOngoing() {
//	    // next dispatch cycle
//	    list.Continue(h)
//	}
//
// Effects are performed through a Handler supplied by the caller. Handlers
// are external collaborators; this package never injects input itself.
//
// Concrete actions are created by tag through New, which is how documents
// are decoded. Unknown tags are rejected.
package action
