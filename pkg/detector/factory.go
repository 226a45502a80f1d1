package detector

import (
	"fmt"
	"os"
	"runtime"

	"github.com/focuspulse/focuspulse/pkg/integrations/darwin"
	"github.com/focuspulse/focuspulse/pkg/integrations/hybrid"
	"github.com/focuspulse/focuspulse/pkg/integrations/wayland"
	"github.com/focuspulse/focuspulse/pkg/integrations/windows"
	"github.com/focuspulse/focuspulse/pkg/integrations/x11"
	"github.com/focuspulse/focuspulse/pkg/window"
)

// Names accepted by New.
const (
	Auto    = "auto"
	X11     = "x11"
	Wayland = "wayland"
	Darwin  = "darwin"
	Windows = "windows"
)

// New returns the detector for name. "auto" picks by runtime platform: on
// Linux a Wayland session gets the Wayland detector with an XWayland
// fallback.
func New(name string) (window.Detector, error) {
	switch name {
	case "", Auto:
		return hybrid.NewDetector(candidates(runtime.GOOS, DetectDisplayServer())...)
	case X11:
		return x11.NewDetector(), nil
	case Wayland:
		return hybrid.NewDetector(wayland.NewDetector(), x11.NewDetector())
	case Darwin:
		return darwin.NewDetector(), nil
	case Windows:
		return windows.NewDetector(), nil
	default:
		return nil, fmt.Errorf("unknown probe %q", name)
	}
}

// candidates lists detectors to try, in order, for a platform.
func candidates(goos, displayServer string) []window.Detector {
	switch goos {
	case "darwin":
		return []window.Detector{darwin.NewDetector()}
	case "windows":
		return []window.Detector{windows.NewDetector()}
	}

	if displayServer == "wayland" {
		return []window.Detector{wayland.NewDetector(), x11.NewDetector()}
	}
	return []window.Detector{x11.NewDetector()}
}

func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
