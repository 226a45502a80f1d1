package wayland

import (
	"errors"
	"testing"

	"github.com/focuspulse/focuspulse/pkg/window"
)

func TestNewDetector(t *testing.T) {
	detector := NewDetector()
	if detector == nil {
		t.Fatal("NewDetector() returned nil")
	}
	var _ window.Detector = detector

	t.Logf("Detected compositor: %s", detector.Compositor())
}

func TestGetDisplayServer(t *testing.T) {
	detector := NewDetector()
	if got := detector.GetDisplayServer(); got != "wayland" {
		t.Errorf("GetDisplayServer() = %s, want wayland", got)
	}
}

func TestIsAvailable(t *testing.T) {
	detector := NewDetector()
	defer detector.Close()

	t.Logf("Wayland detector available: %v (compositor %s)", detector.IsAvailable(), detector.Compositor())
}

func TestCompositorFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"hyprland", map[string]string{"HYPRLAND_INSTANCE_SIGNATURE": "abc"}, compositorHyprland},
		{"sway socket", map[string]string{"SWAYSOCK": "/run/user/1000/sway-ipc.sock"}, compositorSway},
		{"gnome", map[string]string{"XDG_CURRENT_DESKTOP": "GNOME"}, compositorGnome},
		{"ubuntu", map[string]string{"XDG_CURRENT_DESKTOP": "ubuntu:GNOME"}, compositorGnome},
		{"sway desktop", map[string]string{"XDG_CURRENT_DESKTOP": "sway"}, compositorSway},
		{"kde", map[string]string{"XDG_CURRENT_DESKTOP": "KDE"}, compositorUnknown},
		{"nothing", map[string]string{}, compositorUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compositorFromEnv(func(k string) string { return tt.env[k] })
			if got != tt.want {
				t.Errorf("compositorFromEnv() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseSwayTree(t *testing.T) {
	tree := `{
	  "type": "root", "focused": false,
	  "nodes": [{
	    "type": "output", "focused": false,
	    "nodes": [{
	      "type": "workspace", "focused": false,
	      "nodes": [
	        {"type": "con", "focused": false, "app_id": "foot", "name": "shell", "pid": 10, "nodes": []},
	        {"type": "con", "focused": true, "app_id": null, "name": "Mozilla Firefox", "pid": 0,
	         "window_properties": {"class": "firefox"}, "nodes": []}
	      ],
	      "floating_nodes": []
	    }]
	  }]
	}`

	info, pid, err := parseSwayTree([]byte(tree))
	if err != nil {
		t.Fatalf("parseSwayTree() error: %v", err)
	}
	if info.AppName != "firefox" {
		t.Errorf("AppName = %q, want firefox", info.AppName)
	}
	if info.WindowTitle != "Mozilla Firefox" {
		t.Errorf("WindowTitle = %q, want Mozilla Firefox", info.WindowTitle)
	}
	if pid != 0 {
		t.Errorf("pid = %d, want 0", pid)
	}
}

func TestParseSwayTreeFloatingAndNone(t *testing.T) {
	floating := `{"focused": false, "nodes": [], "floating_nodes": [
	  {"focused": true, "app_id": "pavucontrol", "name": "Volume Control", "pid": 42, "nodes": []}
	]}`
	info, pid, err := parseSwayTree([]byte(floating))
	if err != nil {
		t.Fatalf("parseSwayTree() error: %v", err)
	}
	if info.AppName != "pavucontrol" || pid != 42 {
		t.Errorf("got %q pid %d, want pavucontrol pid 42", info.AppName, pid)
	}

	_, _, err = parseSwayTree([]byte(`{"focused": false, "nodes": []}`))
	if !errors.Is(err, window.ErrNoWindow) {
		t.Errorf("error = %v, want ErrNoWindow", err)
	}

	if _, _, err := parseSwayTree([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseHyprlandWindow(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantApp   string
		wantTitle string
		wantPID   int
		wantErr   bool
	}{
		{
			name:      "active window",
			input:     `{"address": "0x1", "class": "kitty", "title": "~/src", "pid": 1234}`,
			wantApp:   "kitty",
			wantTitle: "~/src",
			wantPID:   1234,
		},
		{
			name:    "initial class fallback",
			input:   `{"class": "", "initialClass": "Slack", "title": "", "pid": 99}`,
			wantApp: "Slack",
			wantPID: 99,
		},
		{name: "no window", input: `{}`, wantErr: true},
		{name: "garbage", input: `Invalid`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, pid, err := parseHyprlandWindow([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if info.AppName != tt.wantApp || info.WindowTitle != tt.wantTitle || pid != tt.wantPID {
				t.Errorf("got (%q, %q, %d), want (%q, %q, %d)",
					info.AppName, info.WindowTitle, pid, tt.wantApp, tt.wantTitle, tt.wantPID)
			}
		})
	}
}

func TestParseGnomeResult(t *testing.T) {
	info, pid, err := parseGnomeResult(`"{\"wm_class\":\"Code\",\"title\":\"main.go\",\"pid\":77}"`)
	if err != nil {
		t.Fatalf("parseGnomeResult() error: %v", err)
	}
	if info.AppName != "Code" || info.WindowTitle != "main.go" || pid != 77 {
		t.Errorf("got (%q, %q, %d)", info.AppName, info.WindowTitle, pid)
	}

	// unquoted object
	info, _, err = parseGnomeResult(`{"wm_class":"firefox","title":"","pid":0}`)
	if err != nil || info.AppName != "firefox" {
		t.Errorf("unquoted reply: %v %v", info, err)
	}

	for _, in := range []string{`"null"`, `null`, ``} {
		if _, _, err := parseGnomeResult(in); !errors.Is(err, window.ErrNoWindow) {
			t.Errorf("parseGnomeResult(%q) error = %v, want ErrNoWindow", in, err)
		}
	}
}
