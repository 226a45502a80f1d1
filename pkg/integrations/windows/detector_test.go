package windows

import (
	"runtime"
	"testing"

	"github.com/focuspulse/focuspulse/pkg/window"
)

func TestDetector(t *testing.T) {
	var d window.Detector = NewDetector()

	if d.GetDisplayServer() != "win32" {
		t.Errorf("GetDisplayServer() = %s, want win32", d.GetDisplayServer())
	}
	if got, want := d.IsAvailable(), runtime.GOOS == "windows"; got != want {
		t.Errorf("IsAvailable() = %v, want %v", got, want)
	}

	info, err := d.GetFocusedWindow()
	if err != nil {
		t.Logf("GetFocusedWindow() error (may be expected): %v", err)
		return
	}
	t.Logf("App Name: %s", info.AppName)
}
