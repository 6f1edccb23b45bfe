// Package errors provides structured errors for the packd CLI.
//
// Every user-facing failure carries a stable error code (e.g. E110) that maps
// to a registered template with a message, detail, and documentation link.
// Errors print with terminal formatting via Format, and wrap underlying
// errors so errors.Is/As keep working:
//
//	return errors.New("E121").
//	    WithDetail("settings file is not writable").
//	    Wrap(err)
//
// Codes are grouped by concern: configuration (E10x), builds (E11x),
// manifest/settings IO (E12x), the development server (E13x), CLI usage
// (E14x), and deployment (E15x).
package errors
