package report

import (
	"os/exec"
	"runtime"

	"github.com/pkg/errors"
)

// View opens path with the host OS's default handler for it, the way
// a generated HTML report is meant to be inspected: by a browser the
// user already has configured, not a new dependency this module
// would have to bundle.
func View(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "failed to open report %q", path)
	}

	return nil
}
