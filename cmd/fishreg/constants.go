package main

// Default limits for CLI commands.
const (
	DefaultListLimit = 50
)

// Valid output formats.
var validFormats = []string{"table", "json", "csv"}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
