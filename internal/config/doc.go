// Package config loads and validates dugout's TOML configuration.
//
// Load resolves the config path (explicit flag, then
// ~/.config/dugout/config.toml), layers the file over Default(), expands ~ in
// path fields, and validates the result. A missing file is not an error; the
// defaults describe a local setup with an unauthenticated MinIO endpoint.
package config
