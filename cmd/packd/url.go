package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/packd-dev/packd/internal/config"
	"github.com/packd-dev/packd/internal/server"
	"github.com/packd-dev/packd/internal/settings"
)

func urlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the running dev server's URL",
		Long: `Print the URL of the running dev server.

The port is read from .packd/settings.json, where the dev server
records it while running. Prints nothing and exits non-zero when
no server is running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runURL()
		},
	}

	return cmd
}

func runURL() error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	root, err := config.FindProjectRoot(wd)
	if err != nil {
		return err
	}

	view, err := settings.NewFileStore().Read(root)
	if err != nil {
		return err
	}
	if view.ServerPort == 0 {
		errorMsg("Dev server is not running")
		return fmt.Errorf("no recorded dev server port for %s", root)
	}

	protocol := "http"
	if view.HTTPS {
		protocol = "https"
	}
	fmt.Println(protocol + "://" + net.JoinHostPort(server.LANAddress(), strconv.Itoa(view.ServerPort)))
	return nil
}
