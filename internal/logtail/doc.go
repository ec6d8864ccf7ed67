// Package logtail reads the end of yum's log file for the TUI activity pane.
//
// Read returns the last N lines using a ring buffer, so large files cost one
// pass and O(N) memory. Parse turns a console or JSON log line into an
// Entry. Watcher reports appends to the log file via fsnotify; it watches
// the parent directory so the file may be created after the watch starts.
package logtail
