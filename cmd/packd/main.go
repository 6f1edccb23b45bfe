package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/packd-dev/packd/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┌─┐┌─┐┬┌─┌┬┐
  ├─┘├─┤│  ├┴┐ ││
  ┴  ┴ ┴└─┘┴ ┴─┴┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "packd",
		Short: "Development workflow for bundled web projects",
		Long: `Packd coordinates a bundler-driven development workflow.

It derives a build environment from your project settings and
CLI flags, then either serves your project with hot reload or
runs a one-shot production build. Features include:

  • Dev server with hot reload and error overlay
  • Automatic port selection near your preferred port
  • Persisted per-project settings (.packd/settings.json)
  • CI-aware builds: warnings fail the build on CI
  • One-command deploy of build output to S3`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands
	rootCmd.AddCommand(
		initCmd(),
		devCmd(),
		buildCmd(),
		urlCmd(),
		deployCmd(),
		versionCmd(),
	)

	// Execute
	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// printBanner prints the packd ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
