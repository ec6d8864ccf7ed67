// Package logging builds the slog loggers used across yum.
//
// New returns either a console handler (one human-readable line per record,
// with the component attribute promoted in front of the message) or a JSON
// handler. The TUI writes to a file under the cache directory so the terminal
// stays clean; the CLI writes to stderr.
//
// Components receive a *slog.Logger through their options and wrap it with
// NewComponentLogger. A nil logger is always allowed and discards output.
package logging
