// Package logging centralizes slog construction and the structured logging
// conventions used across the daemon: standardized field keys, attribute
// helpers, and context-derived workflow fields.
package logging
