package darwin

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/focuspulse/focuspulse/pkg/window"
)

const separator = "|||"

// frontmostScript asks System Events for the frontmost process and, when
// permitted, the title of its front window.
const frontmostScript = `
tell application "System Events"
	set frontApp to first application process whose frontmost is true
	set appName to name of frontApp
	set winTitle to ""
	try
		set winTitle to name of front window of frontApp
	end try
end tell
return appName & "|||" & winTitle`

// Detector implements window.Detector for macOS through osascript
type Detector struct {
	timeout time.Duration
	run     func(ctx context.Context) ([]byte, error)
}

// NewDetector creates a new macOS detector
func NewDetector() *Detector {
	return &Detector{
		timeout: 2 * time.Second,
		run: func(ctx context.Context) ([]byte, error) {
			return exec.CommandContext(ctx, "osascript", "-e", frontmostScript).Output()
		},
	}
}

// IsAvailable reports whether osascript can be used
func (d *Detector) IsAvailable() bool {
	if runtime.GOOS != "darwin" {
		return false
	}
	_, err := exec.LookPath("osascript")
	return err == nil
}

// GetDisplayServer returns "quartz"
func (d *Detector) GetDisplayServer() string {
	return "quartz"
}

// GetFocusedWindow returns information about the frontmost application
func (d *Detector) GetFocusedWindow() (*window.WindowInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	output, err := d.run(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to execute osascript: %w", err)
	}
	return parseOutput(string(output))
}

// parseOutput splits "App|||Title".
func parseOutput(output string) (*window.WindowInfo, error) {
	output = strings.TrimSpace(output)
	app, title, _ := strings.Cut(output, separator)
	app = strings.TrimSpace(app)
	if app == "" {
		return nil, window.ErrNoWindow
	}

	return &window.WindowInfo{
		AppName:       app,
		WindowTitle:   strings.TrimSpace(title),
		ProcessName:   app,
		DisplayServer: "quartz",
	}, nil
}

// Close cleans up resources
func (d *Detector) Close() error {
	return nil
}
