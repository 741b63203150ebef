// Package profile holds the Profile aggregate: the mode, app and page
// registries, the input sources and screen regions, and the mapping
// hierarchy binding events to action lists.
//
// Edits may leave references to deleted entities behind. Validate heals
// them: it prunes mappings of deleted states, bindings of deleted controls
// and actions targeting deleted entities, then renumbers the lists.
//
// Store reads and writes the XML profile document, upgrading documents
// written by older releases on the way in.
package profile
