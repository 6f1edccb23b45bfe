package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/packd-dev/packd/internal/config"
	"github.com/packd-dev/packd/internal/env"
	"github.com/packd-dev/packd/internal/server"
)

func devCmd() *cobra.Command {
	var (
		port        int
		https       bool
		openBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server",
		Long: `Start the development server with hot reload.

The dev server compiles your project, serves the output, and
refreshes connected browsers on every rebuild. The chosen port
is remembered in .packd/settings.json while the server runs.

Examples:
  packd dev
  packd dev --port=8080
  packd dev --https --open`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var httpsFlag *bool
			if cmd.Flags().Changed("https") {
				httpsFlag = &https
			}
			return runDev(port, httpsFlag, openBrowser)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Preferred port (default from packd.json)")
	cmd.Flags().BoolVar(&https, "https", false, "Serve over https")
	cmd.Flags().BoolVarP(&openBrowser, "open", "o", false, "Open browser on start")

	return cmd
}

func runDev(port int, https *bool, openBrowser bool) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	root, err := config.FindProjectRoot(wd)
	if err != nil {
		return err
	}

	printBanner()
	fmt.Println("  dev")
	fmt.Println()

	lifecycle := server.New(server.Deps{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := server.StartOptions{
		Env:           env.Options{HTTPS: https},
		PreferredPort: port,
		OnReady: func(bindErr error) {
			if bindErr != nil {
				errorMsg("Bind failed: %v", bindErr)
			}
		},
	}

	handle, err := lifecycle.Start(ctx, root, opts)
	if err != nil {
		return err
	}
	if handle != nil {
		success("Dev server running at %s", handle.URL)
		info("Press Ctrl+C to stop")
	}

	if openBrowser {
		if openErr := lifecycle.Open(ctx, root, opts); openErr != nil {
			warn("Could not open browser: %v", openErr)
		}
	}

	// Block until interrupted.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\n\n  Shutting down...")
	return lifecycle.Stop(context.Background(), root)
}
