// Package mapping provides the hierarchical store that binds events to
// action lists.
//
// The hierarchy has four levels:
//
//	Root                mode ID -> ModeMappingTable
//	ModeMappingTable    app ID  -> AppMappingTable
//	AppMappingTable     page ID -> ActionMappingTable
//	ActionMappingTable  event key -> *action.ActionList
//
// ID 0 is the Default entry at every level and always exists. A lookup with
// defaults included combines a specific table with its Default sibling at
// each level, so a list configured for "all apps, all pages" of a mode is
// inherited everywhere unless a more specific level binds the same event.
// Precedence for state (M, A, P) is
//
//	M/A/P > M/A/0 > M/0/P > M/0/0 > 0/A/P > 0/A/0 > 0/0/P > 0/0/0
//
// Overrides replace whole action lists; lists are never merged action by
// action.
//
// # Shared Lists
//
// Combined tables are read-only views computed on every call. They hold the
// same *action.ActionList pointers as the tables they were built from: the
// hierarchy owns each list, views borrow it. Execution state started through
// a view is therefore visible through the hierarchy and every other view.
// Combining never copies a list.
package mapping
