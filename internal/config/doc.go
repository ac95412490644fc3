// Package config provides configuration management for tankobon.
//
// Settings are stored as TOML. A missing config file is not an error:
// Load falls back to DefaultSettings so the tool works out of the box.
//
//	settings, err := config.Load("~/.config/tankobon/config.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Configuration Options
//
// Settings covers:
//   - Download and export directories
//   - Target and fallback translation languages
//   - Page download concurrency and retry behavior
//   - External enhancement command invocation
//   - CBZ/PDF export toggles
//   - Logging level, format, and optional log file
package config
