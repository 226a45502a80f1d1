//go:build !windows

package windows

import (
	"errors"

	"github.com/focuspulse/focuspulse/pkg/window"
)

// Detector is unavailable outside Windows
type Detector struct{}

// NewDetector creates a detector that never answers
func NewDetector() *Detector {
	return &Detector{}
}

// IsAvailable is always false outside Windows
func (d *Detector) IsAvailable() bool {
	return false
}

// GetDisplayServer returns "win32"
func (d *Detector) GetDisplayServer() string {
	return "win32"
}

// GetFocusedWindow always fails outside Windows
func (d *Detector) GetFocusedWindow() (*window.WindowInfo, error) {
	return nil, errors.New("windows detector is not supported on this platform")
}

// Close cleans up resources
func (d *Detector) Close() error {
	return nil
}
