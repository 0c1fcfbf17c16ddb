// Package logging assembles structured slog loggers used across mediamorph.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes attr helpers so components tag log lines consistently.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape and routing.
package logging
