// Package config loads, normalizes, and validates lectern configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LECTERN_TRANSLATION_API_KEY. The Config type centralizes every knob the
// pipeline commands need: where canonical metadata and content trees live,
// which legacy sources feed consolidation, the supported languages, and the
// translation provider settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, normalized language codes, and clear validation errors.
package config
