// Package probe turns a window detector into the single question the
// sampling loop asks: which application has focus right now.
package probe

import (
	"log/slog"
	"strings"

	"github.com/focuspulse/focuspulse/pkg/window"
)

// Unknown is reported whenever the focused application cannot be determined.
const Unknown = "Unknown"

// Probe reports the label of the foreground application. It never fails;
// problems yield Unknown.
type Probe interface {
	CurrentForegroundApp() string
}

// Func adapts a function to Probe.
type Func func() string

func (f Func) CurrentForegroundApp() string { return f() }

// WindowProbe is a Probe backed by a window.Detector.
type WindowProbe struct {
	detector     window.Detector
	includeTitle bool
	logger       *slog.Logger
}

// New adapts det. With includeTitle the label is "<app>: <title>" whenever
// the window has a title.
func New(det window.Detector, includeTitle bool) *WindowProbe {
	return &WindowProbe{detector: det, includeTitle: includeTitle, logger: slog.Default()}
}

// WithLogger sets the logger used for detector failures.
func (p *WindowProbe) WithLogger(logger *slog.Logger) *WindowProbe {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// CurrentForegroundApp implements Probe
func (p *WindowProbe) CurrentForegroundApp() string {
	if p.detector == nil {
		return Unknown
	}

	info, err := p.detector.GetFocusedWindow()
	if err != nil {
		p.logger.Debug("foreground probe failed", "display_server", p.detector.GetDisplayServer(), "error", err)
		return Unknown
	}
	return Label(info, p.includeTitle)
}

// Label builds the log label for info.
func Label(info *window.WindowInfo, includeTitle bool) string {
	name := strings.TrimSpace(info.Name())
	if name == "" {
		return Unknown
	}
	if includeTitle && info != nil {
		if title := strings.TrimSpace(info.WindowTitle); title != "" && title != name {
			return name + ": " + title
		}
	}
	return name
}

// Close releases the detector.
func (p *WindowProbe) Close() error {
	if p.detector == nil {
		return nil
	}
	return p.detector.Close()
}
