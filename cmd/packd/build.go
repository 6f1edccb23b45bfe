package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/packd-dev/packd/internal/build"
	"github.com/packd-dev/packd/internal/config"
	"github.com/packd-dev/packd/internal/env"
)

func buildCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build for production",
		Long: `Run a one-shot production build.

The bundler compiles the project once. Compile errors fail the
build with the first error; on CI (the CI environment variable
set to anything but "false"), warnings fail the build too.

Examples:
  packd build
  packd build --mode=test`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(mode)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "production", "Build mode (development, production, test, none)")

	return cmd
}

func runBuild(mode string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	root, err := config.FindProjectRoot(wd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	runner := build.NewRunner(build.Deps{})
	result, err := runner.Run(ctx, root, build.Options{
		// Mode alone selects the build environment; persisting a dev
		// value here would leak one build's mode into later dev
		// sessions.
		Env: env.Options{Mode: env.Mode(mode)},
		OnProgress: func(step string) {
			info(step)
		},
	})
	if err != nil {
		return err
	}

	if result.Stats.HasWarnings() {
		warn("Built with %d warning(s) in %s", len(result.Stats.Warnings), result.Duration.Round(1000000))
	} else {
		success("Built in %s", result.Duration.Round(1000000))
	}
	return nil
}
