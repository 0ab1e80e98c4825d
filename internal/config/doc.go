// Package config loads the runtime configuration for the task manager and the
// personal site from a JSON or YAML file, fills in defaults and applies
// environment overrides.
package config
