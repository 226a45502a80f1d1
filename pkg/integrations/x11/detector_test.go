package x11

import (
	"os"
	"testing"

	"github.com/focuspulse/focuspulse/pkg/window"
)

func TestNewDetector(t *testing.T) {
	detector := NewDetector()
	if detector == nil {
		t.Fatal("NewDetector() returned nil")
	}
	var _ window.Detector = detector
}

func TestGetDisplayServer(t *testing.T) {
	detector := NewDetector()
	displayServer := detector.GetDisplayServer()

	if displayServer != "x11" {
		t.Errorf("GetDisplayServer() = %s, want %s", displayServer, "x11")
	}
}

func TestIsAvailable(t *testing.T) {
	detector := NewDetector()
	defer detector.Close()

	available := detector.IsAvailable()
	t.Logf("X11 detector available: %v (DISPLAY=%q)", available, os.Getenv("DISPLAY"))
}

func TestGetFocusedWindow(t *testing.T) {
	detector := NewDetector()
	defer detector.Close()

	if !detector.IsAvailable() {
		t.Skip("X11 detector not available on this system")
	}

	windowInfo, err := detector.GetFocusedWindow()
	if err != nil {
		t.Logf("GetFocusedWindow() error (may be expected): %v", err)
		return
	}

	if windowInfo == nil {
		t.Fatal("GetFocusedWindow() returned nil windowInfo without error")
	}

	t.Logf("App Name: %s", windowInfo.AppName)
	t.Logf("Window Title: %s", windowInfo.WindowTitle)
	t.Logf("Process Name: %s", windowInfo.ProcessName)

	if windowInfo.AppName == "" {
		t.Error("AppName is empty")
	}
	if windowInfo.DisplayServer != "x11" {
		t.Errorf("DisplayServer = %s, want x11", windowInfo.DisplayServer)
	}
}

func TestParseWMClass(t *testing.T) {
	tests := []struct {
		name         string
		input        []byte
		wantInstance string
		wantClass    string
	}{
		{"firefox", []byte("Navigator\x00firefox\x00"), "Navigator", "firefox"},
		{"vscode", []byte("code\x00Code\x00"), "code", "Code"},
		{"flatpak", []byte("org.gnome.Nautilus\x00Org.gnome.Nautilus\x00"), "org.gnome.Nautilus", "Org.gnome.Nautilus"},
		{"instance only", []byte("xterm\x00"), "xterm", ""},
		{"empty", nil, "", ""},
		{"only nul", []byte("\x00\x00"), "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instance, class := parseWMClass(tt.input)
			if instance != tt.wantInstance {
				t.Errorf("instance = %q, want %q", instance, tt.wantInstance)
			}
			if class != tt.wantClass {
				t.Errorf("class = %q, want %q", class, tt.wantClass)
			}
		})
	}
}
