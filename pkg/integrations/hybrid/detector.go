package hybrid

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/focuspulse/focuspulse/pkg/window"
)

// Detector tries an ordered list of detectors; the first available detector
// that answers wins.
type Detector struct {
	detectors []window.Detector

	mu                   sync.Mutex
	lastSuccessfulMethod string
	lastErrors           map[string]string
}

// NewDetector builds a chain. Nil entries are ignored.
func NewDetector(detectors ...window.Detector) (*Detector, error) {
	d := &Detector{lastErrors: make(map[string]string)}
	for _, det := range detectors {
		if det != nil {
			d.detectors = append(d.detectors, det)
		}
	}
	if len(d.detectors) == 0 {
		return nil, fmt.Errorf("no window detectors configured")
	}
	return d, nil
}

// GetFocusedWindow asks each available detector in order
func (d *Detector) GetFocusedWindow() (*window.WindowInfo, error) {
	var errs []error

	for _, det := range d.detectors {
		if !det.IsAvailable() {
			continue
		}

		info, err := det.GetFocusedWindow()
		if err == nil && info != nil && info.Name() != "" {
			d.mu.Lock()
			if d.lastSuccessfulMethod != det.GetDisplayServer() {
				slog.Debug("window detection method changed", "from", d.lastSuccessfulMethod, "to", det.GetDisplayServer())
			}
			d.lastSuccessfulMethod = det.GetDisplayServer()
			delete(d.lastErrors, det.GetDisplayServer())
			d.mu.Unlock()
			return info, nil
		}

		if err == nil {
			err = window.ErrNoWindow
		}
		d.mu.Lock()
		d.lastErrors[det.GetDisplayServer()] = err.Error()
		d.mu.Unlock()
		errs = append(errs, fmt.Errorf("%s: %w", det.GetDisplayServer(), err))
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("no window detector available")
	}
	return nil, fmt.Errorf("all detection methods failed: %w", errors.Join(errs...))
}

// IsAvailable reports whether any detector in the chain can run
func (d *Detector) IsAvailable() bool {
	for _, det := range d.detectors {
		if det.IsAvailable() {
			return true
		}
	}
	return false
}

// GetDisplayServer returns the method that answered last, else the first
// available detector's display server.
func (d *Detector) GetDisplayServer() string {
	d.mu.Lock()
	last := d.lastSuccessfulMethod
	d.mu.Unlock()
	if last != "" {
		return last
	}
	for _, det := range d.detectors {
		if det.IsAvailable() {
			return det.GetDisplayServer()
		}
	}
	return "unknown"
}

// LastSuccessfulMethod returns the display server of the last detector that
// answered, or "" before the first success.
func (d *Detector) LastSuccessfulMethod() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSuccessfulMethod
}

// DetectorInfo describes one member of the chain
type DetectorInfo struct {
	Method    string
	Available bool
	LastError string
}

// GetAllDetectors lists the chain in order
func (d *Detector) GetAllDetectors() []DetectorInfo {
	d.mu.Lock()
	defer d.mu.Unlock()

	infos := make([]DetectorInfo, 0, len(d.detectors))
	for _, det := range d.detectors {
		infos = append(infos, DetectorInfo{
			Method:    det.GetDisplayServer(),
			Available: det.IsAvailable(),
			LastError: d.lastErrors[det.GetDisplayServer()],
		})
	}
	return infos
}

// GetStatus renders the chain state for diagnostics
func (d *Detector) GetStatus() string {
	var b strings.Builder
	b.WriteString("Detector chain:\n")
	for i, info := range d.GetAllDetectors() {
		fmt.Fprintf(&b, "  %d. %s (available: %v)", i+1, info.Method, info.Available)
		if info.LastError != "" {
			fmt.Fprintf(&b, " last error: %s", info.LastError)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "  Last successful method: %s\n", d.LastSuccessfulMethod())
	return b.String()
}

// Close closes every detector in the chain
func (d *Detector) Close() error {
	var errs []error
	for _, det := range d.detectors {
		if err := det.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
