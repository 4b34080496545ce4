// Package logging constructs the application's slog logger.
//
// Two formats are supported: a compact console format with level colors
// when the output is a terminal, and JSON for machine consumption. Output
// can be teed to a log file alongside stdout.
package logging
