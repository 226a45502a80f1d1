package hybrid

import (
	"errors"
	"strings"
	"testing"

	"github.com/focuspulse/focuspulse/pkg/window"
)

type stubDetector struct {
	server    string
	available bool
	info      *window.WindowInfo
	err       error
	calls     int
	closed    bool
}

func (s *stubDetector) GetFocusedWindow() (*window.WindowInfo, error) {
	s.calls++
	return s.info, s.err
}
func (s *stubDetector) IsAvailable() bool        { return s.available }
func (s *stubDetector) GetDisplayServer() string { return s.server }
func (s *stubDetector) Close() error             { s.closed = true; return nil }

func TestNewDetectorRequiresMembers(t *testing.T) {
	if _, err := NewDetector(); err == nil {
		t.Error("expected error for empty chain")
	}
	if _, err := NewDetector(nil, nil); err == nil {
		t.Error("expected error for nil-only chain")
	}
}

func TestChainFallsThrough(t *testing.T) {
	gnome := &stubDetector{server: "wayland", available: true, err: errors.New("eval refused")}
	xwayland := &stubDetector{server: "x11", available: true, info: &window.WindowInfo{AppName: "Code"}}

	d, err := NewDetector(gnome, xwayland)
	if err != nil {
		t.Fatalf("NewDetector() error: %v", err)
	}

	info, err := d.GetFocusedWindow()
	if err != nil {
		t.Fatalf("GetFocusedWindow() error: %v", err)
	}
	if info.AppName != "Code" {
		t.Errorf("AppName = %s, want Code", info.AppName)
	}
	if d.LastSuccessfulMethod() != "x11" {
		t.Errorf("LastSuccessfulMethod() = %s, want x11", d.LastSuccessfulMethod())
	}
	if d.GetDisplayServer() != "x11" {
		t.Errorf("GetDisplayServer() = %s, want x11", d.GetDisplayServer())
	}

	status := d.GetStatus()
	if !strings.Contains(status, "eval refused") {
		t.Errorf("status does not mention the wayland failure:\n%s", status)
	}
}

func TestChainSkipsUnavailable(t *testing.T) {
	off := &stubDetector{server: "quartz", available: false, info: &window.WindowInfo{AppName: "Safari"}}
	on := &stubDetector{server: "x11", available: true, info: &window.WindowInfo{ProcessName: "firefox"}}

	d, _ := NewDetector(off, on)
	info, err := d.GetFocusedWindow()
	if err != nil {
		t.Fatalf("GetFocusedWindow() error: %v", err)
	}
	if info.Name() != "firefox" {
		t.Errorf("Name() = %s, want firefox", info.Name())
	}
	if off.calls != 0 {
		t.Errorf("unavailable detector was queried %d times", off.calls)
	}
}

func TestChainAllFail(t *testing.T) {
	a := &stubDetector{server: "wayland", available: true, err: window.ErrNoWindow}
	b := &stubDetector{server: "x11", available: true, info: &window.WindowInfo{}}

	d, _ := NewDetector(a, b)
	_, err := d.GetFocusedWindow()
	if !errors.Is(err, window.ErrNoWindow) {
		t.Errorf("error = %v, want wrapping ErrNoWindow", err)
	}

	none, _ := NewDetector(&stubDetector{server: "x11"})
	if none.IsAvailable() {
		t.Error("IsAvailable() = true for chain of unavailable detectors")
	}
	if _, err := none.GetFocusedWindow(); err == nil {
		t.Error("expected error when nothing is available")
	}
	if none.GetDisplayServer() != "unknown" {
		t.Errorf("GetDisplayServer() = %s, want unknown", none.GetDisplayServer())
	}
}

func TestChainClose(t *testing.T) {
	a := &stubDetector{server: "wayland"}
	b := &stubDetector{server: "x11"}
	d, _ := NewDetector(a, b)

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("Close() did not close every detector")
	}
}
