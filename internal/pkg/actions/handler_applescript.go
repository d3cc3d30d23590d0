package actions

import (
	"bytes"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// AppleScriptHandler runs the payload through osascript. This is the usual
// bridge into application automation on macOS.
type AppleScriptHandler struct{}

func (h *AppleScriptHandler) IsSupported() bool {
	return runtime.GOOS == "darwin"
}

func (h *AppleScriptHandler) Execute(payload Payload) error {
	if !h.IsSupported() {
		return fmt.Errorf("AppleScript is only supported on macOS")
	}

	c, err := code(payload)
	if err != nil {
		return err
	}

	cmd := exec.Command("osascript", "-e", c)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("AppleScript error: %s", msg)
		}
		return fmt.Errorf("AppleScript execution failed: %w", err)
	}
	return nil
}
