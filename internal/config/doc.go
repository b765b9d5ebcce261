// Package config loads, normalizes, and validates ffqueue configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// FFQUEUE_FFMPEG. The Config type is the explicit application context handed
// to the queue driver and task builders; nothing reads global state.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, collapsed argument strings, and clear validation errors.
package config
