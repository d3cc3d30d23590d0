package frontmost

import (
	"os/exec"
	"runtime"
	"strings"
)

const script = `tell application "System Events" to get bundle identifier of first process whose frontmost is true`

// BundleID returns the bundle identifier of the frontmost application, or ""
// when it cannot be determined. The dispatcher treats "" like any other
// application without bindings and falls back to the all-applications set.
func BundleID() string {
	if runtime.GOOS != "darwin" {
		return ""
	}

	out, err := exec.Command("osascript", "-e", script).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
