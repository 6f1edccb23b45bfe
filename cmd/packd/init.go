package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/packd-dev/packd/internal/config"
)

func initCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a packd.json in the current directory",
		Long: `Create a packd.json manifest with default values.

The manifest declares the project name, source and output
directories, the bundler command, and dev-server preferences.

Examples:
  packd init
  packd init --name=my-site`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(name)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name (default: directory name)")

	return cmd
}

func runInit(name string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	if config.Exists(wd) {
		errorMsg("%s already exists", config.ConfigFileName)
		return fmt.Errorf("refusing to overwrite %s", config.ConfigFileName)
	}

	if name == "" {
		name = filepath.Base(wd)
	}

	cfg := config.New()
	cfg.Name = name
	if err := cfg.SaveTo(filepath.Join(wd, config.ConfigFileName)); err != nil {
		return err
	}

	success("Created %s", config.ConfigFileName)
	info("Next steps:")
	info("  1. Set bundler.command in %s", config.ConfigFileName)
	info("  2. Run 'packd dev' to start the dev server")
	return nil
}
