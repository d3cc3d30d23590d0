package actions

import (
	"bytes"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ShellHandler runs the payload as a shell command.
type ShellHandler struct{}

func (h *ShellHandler) Execute(payload Payload) error {
	c, err := code(payload)
	if err != nil {
		return err
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		shell := "/bin/bash"
		if _, err := exec.LookPath("zsh"); err == nil {
			shell = "/bin/zsh"
		}
		cmd = exec.Command(shell, "-c", c)
	case "linux":
		cmd = exec.Command("/bin/bash", "-c", c)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("shell error: %s", msg)
		}
		return fmt.Errorf("shell execution failed: %w", err)
	}
	return nil
}
