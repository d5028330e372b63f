// Package logging configures the process-wide slog logger for hitpager:
// text or JSON records on stderr, optionally mirrored to a rotating log
// file.
package logging
