// Package config loads, normalizes, and validates mediamorph configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MEDIAMORPH_API_URL. The Config type centralizes every knob the CLI needs,
// allowing the service endpoint, polling cadence, and local state directories
// to be discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
