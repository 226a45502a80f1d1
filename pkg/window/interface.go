package window

import "errors"

// ErrNoWindow is returned when nothing has input focus.
var ErrNoWindow = errors.New("no focused window")

// WindowInfo represents information about the currently focused window
type WindowInfo struct {
	AppName       string
	WindowTitle   string
	ProcessName   string
	DisplayServer string // "x11", "wayland", "quartz" or "win32"
}

// Name returns the best available application name: the application name,
// else the process name.
func (w *WindowInfo) Name() string {
	if w == nil {
		return ""
	}
	if w.AppName != "" {
		return w.AppName
	}
	return w.ProcessName
}

// Detector is the interface that all window detection implementations must satisfy
type Detector interface {
	// GetFocusedWindow returns information about the currently focused window
	GetFocusedWindow() (*WindowInfo, error)

	// IsAvailable checks if this detector can run on the current system
	IsAvailable() bool

	// GetDisplayServer returns the display server type
	GetDisplayServer() string

	// Close cleans up any resources used by the detector
	Close() error
}
