// Package config loads and validates the packd.json project manifest.
//
// The manifest declares the project name, the external bundler invocation,
// dev server preferences, build output, and deploy targets. Absent fields
// fall back to defaults in a fixed order: file values win over defaults,
// and CLI flags are applied by the command layer after loading.
package config
