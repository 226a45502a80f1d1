//go:build windows

package windows

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/process"
	"golang.org/x/sys/windows"

	"github.com/focuspulse/focuspulse/pkg/window"
)

// Detector implements window.Detector for Windows through user32
type Detector struct{}

// NewDetector creates a new Windows detector
func NewDetector() *Detector {
	return &Detector{}
}

// IsAvailable is always true on Windows
func (d *Detector) IsAvailable() bool {
	return true
}

// GetDisplayServer returns "win32"
func (d *Detector) GetDisplayServer() string {
	return "win32"
}

// GetFocusedWindow returns the process owning the foreground window
func (d *Detector) GetFocusedWindow() (*window.WindowInfo, error) {
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 {
		return nil, window.ErrNoWindow
	}

	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil {
		return nil, fmt.Errorf("failed to get window process: %w", err)
	}
	if pid == 0 {
		return nil, window.ErrNoWindow
	}

	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("failed to open process %d: %w", pid, err)
	}
	name, err := p.Name()
	if err != nil {
		return nil, fmt.Errorf("failed to get process name: %w", err)
	}

	return &window.WindowInfo{
		AppName:       appName(name),
		ProcessName:   name,
		DisplayServer: "win32",
	}, nil
}

// Close cleans up resources
func (d *Detector) Close() error {
	return nil
}

// appName strips the executable suffix: "Code.exe" becomes "Code".
func appName(processName string) string {
	if strings.HasSuffix(strings.ToLower(processName), ".exe") {
		return processName[:len(processName)-4]
	}
	return processName
}
