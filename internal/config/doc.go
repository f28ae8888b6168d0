// Package config defines the application configuration structure and
// loading. Configuration comes from an optional config.yaml and from
// environment variables with the STUDYDECK_ prefix; environment variables
// take precedence. Loaded configuration is validated before use.
package config
