// Package browser opens URLs in the system default browser.
package browser

import (
	"os/exec"

	"github.com/packd-dev/packd/internal/errors"
)

// Opener opens a URL for the user. Injected so tests can observe opens
// without touching the host.
type Opener interface {
	Open(url string) error
}

// SystemOpener opens URLs via the host's launcher command.
type SystemOpener struct{}

// Open opens the URL in the default browser.
func (SystemOpener) Open(url string) error {
	var cmd *exec.Cmd

	switch {
	case commandExists("xdg-open"):
		cmd = exec.Command("xdg-open", url)
	case commandExists("open"):
		cmd = exec.Command("open", url)
	case commandExists("start"):
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return errors.Newf(errors.CategoryCLI, "no browser launcher found on this system")
	}

	return cmd.Start()
}

// commandExists checks if a command exists in PATH.
func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
