// Package config defines the application's configuration structure and
// loading logic. Configuration is read from environment variables and an
// optional YAML file via viper, then validated with go-playground/validator
// struct tags before use.
package config
