// Package config provides the configuration of a pagediff comparison.
//
// Config is a flat struct of defaults created by NewConfig. A YAML tuning
// file (see File) overrides the engine knobs, and CLI flags override both.
// Validate fails fast on misconfiguration before any document is read.
package config
