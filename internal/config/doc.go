// Package config loads, normalizes, and validates clipmark configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. Directories that are configured relative
// to the data directory are resolved against it, so a single data_dir moves
// bookmarks, session documents and logs together.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, lowercased keywords, and clear validation errors.
package config
