package common

import (
	"os"
	"strconv"
	"syscall"

	"github.com/maxgio92/tracey/internal/settings"
)

// IsDaemonRunning reports whether the PID recorded in settings.PidFile
// is still alive.
func IsDaemonRunning() bool {
	pidData, err := os.ReadFile(settings.PidFile)
	if err != nil {
		return false
	}

	pid, err := strconv.Atoi(string(pidData))
	if err != nil {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}
