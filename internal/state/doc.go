// Package state holds the latest engine view shared between the display
// poller and the UI.
//
// The poller gathers jobs, queue contents and library counts into a View and
// calls Store.Update; the UI reads Store.Snapshot on its own schedule. Both
// sides copy, so neither can mutate what the other holds.
//
// A failed refresh keeps the previous View and only records LastError and
// bumps ConsecutiveFailures. Two failures in a row mark the snapshot offline.
//
// The zero Store is ready to use.
package state
