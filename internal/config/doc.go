// Package config loads and validates the TOML configuration that is threaded
// explicitly into every component at construction time. There are no
// process-global settings.
package config
