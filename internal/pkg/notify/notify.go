package notify

import (
	"fmt"
	"os/exec"
	"runtime"

	"midideck/internal/pkg/logger"
)

var log = logger.GetLogger()

// Display shows a fire-and-forget user notification. On macOS it goes
// through the notification center, elsewhere it only lands in the log.
// Failures are logged and swallowed; nothing user-facing depends on it.
func Display(title, message string) {
	if runtime.GOOS != "darwin" {
		log.Info(fmt.Sprintf("%s: %s", title, message), logger.Info)
		return
	}

	script := fmt.Sprintf("display notification %q with title %q", message, title)
	go func() {
		if err := exec.Command("osascript", "-e", script).Run(); err != nil {
			log.Info(fmt.Sprintf("notification failed: %v", err), logger.Debug)
		}
	}()
}
