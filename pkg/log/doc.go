// Package log provides structured logging built on zerolog.
//
// A single global Logger is configured once via Init and shared across the
// process; components derive child loggers that carry one contextual field
// (WithComponent, WithClusterKey, WithProject, WithRule) instead of repeating
// fields on every call site.
package log
