// Package config loads, normalizes, and validates the TOML configuration
// that parameterizes the pipeline: directories, collaborator binaries,
// engine quality settings, partition count, and export tiers.
package config
