package config

// Default values applied before parsing.
const (
	DefaultLogLevel = "info"
	DefaultTrace    = true
)
