// Package platform hosts the accessories of a running service.
//
// It owns the process-level lifecycle around the capability catalog:
//
//	Populate(records)      built-in table, then device database, then freeze
//	New(Options{Catalog})  platform over the frozen catalog
//	Discover(ctx)          attach a handler to every supported paired device
//	HandleState(addr, s)   forward reports to handlers and event sinks
//	Unpair(ctx, addr)      unpair, detach and forget the shell
//
// Attached handlers keep their shell across restarts through the
// accessory_shells table (SQLiteShellRepository).
package platform
