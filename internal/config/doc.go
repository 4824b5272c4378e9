// Package config loads, normalizes, and validates pdfpod configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and applies environment overrides such as
// ELEVENLABS_API_KEY and OPENROUTER_API_KEY. The Config type centralizes every
// knob the CLI and the pipeline need: output and state directories, service
// endpoints, synthesis concurrency and retry limits, composition timing, and
// the enumerated voice set that generated dialogue must stay within.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
