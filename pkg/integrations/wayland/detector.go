package wayland

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/shirou/gopsutil/process"

	"github.com/focuspulse/focuspulse/pkg/window"
)

const (
	compositorSway     = "sway"
	compositorHyprland = "hyprland"
	compositorGnome    = "gnome"
	compositorUnknown  = "unknown"
)

// gnomeFocusScript runs inside GNOME Shell and returns the focused window as
// JSON, or "null".
const gnomeFocusScript = `
(function () {
	let fw = global.display.get_focus_window();
	if (!fw) {
		let actor = global.get_window_actors().find(a => a.meta_window && a.meta_window.has_focus());
		fw = actor ? actor.meta_window : null;
	}
	if (!fw) {
		return 'null';
	}
	return JSON.stringify({
		wm_class: fw.get_wm_class() || '',
		title: fw.get_title() || '',
		pid: fw.get_pid() || 0
	});
})()`

// Detector implements window.Detector for Wayland compositors
type Detector struct {
	compositor string

	mu  sync.Mutex
	bus *dbus.Conn
}

// NewDetector creates a new Wayland detector
func NewDetector() *Detector {
	return &Detector{compositor: compositorFromEnv(os.Getenv)}
}

// compositorFromEnv identifies the running compositor from the session
// environment.
func compositorFromEnv(getenv func(string) string) string {
	switch {
	case getenv("HYPRLAND_INSTANCE_SIGNATURE") != "":
		return compositorHyprland
	case getenv("SWAYSOCK") != "":
		return compositorSway
	}

	desktop := strings.ToLower(getenv("XDG_CURRENT_DESKTOP"))
	switch {
	case strings.Contains(desktop, "gnome"), strings.Contains(desktop, "ubuntu"):
		return compositorGnome
	case strings.Contains(desktop, "sway"):
		return compositorSway
	case strings.Contains(desktop, "hyprland"):
		return compositorHyprland
	}
	return compositorUnknown
}

// Compositor returns the detected compositor name
func (d *Detector) Compositor() string {
	return d.compositor
}

// IsAvailable checks if Wayland detection is available
func (d *Detector) IsAvailable() bool {
	if os.Getenv("WAYLAND_DISPLAY") == "" && os.Getenv("XDG_SESSION_TYPE") != "wayland" {
		return false
	}

	switch d.compositor {
	case compositorSway:
		return commandExists("swaymsg")
	case compositorHyprland:
		return commandExists("hyprctl")
	case compositorGnome:
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.sessionBus() == nil
	default:
		return false
	}
}

// GetDisplayServer returns "wayland"
func (d *Detector) GetDisplayServer() string {
	return "wayland"
}

// GetFocusedWindow returns information about the currently focused window
func (d *Detector) GetFocusedWindow() (*window.WindowInfo, error) {
	var (
		info *window.WindowInfo
		pid  int
		err  error
	)

	switch d.compositor {
	case compositorSway:
		info, pid, err = d.focusedSway()
	case compositorHyprland:
		info, pid, err = d.focusedHyprland()
	case compositorGnome:
		info, pid, err = d.focusedGnome()
	default:
		return nil, fmt.Errorf("unsupported wayland compositor: %s", d.compositor)
	}
	if err != nil {
		return nil, err
	}

	info.DisplayServer = "wayland"
	if pid > 0 {
		if name, err := processName(int32(pid)); err == nil {
			info.ProcessName = name
		}
	}
	if info.AppName == "" {
		info.AppName = info.ProcessName
	}
	if info.AppName == "" {
		return nil, window.ErrNoWindow
	}
	return info, nil
}

func (d *Detector) focusedSway() (*window.WindowInfo, int, error) {
	output, err := exec.Command("swaymsg", "-t", "get_tree", "-r").Output()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute swaymsg: %w", err)
	}
	return parseSwayTree(output)
}

type swayNode struct {
	Focused          bool        `json:"focused"`
	AppID            *string     `json:"app_id"`
	Name             *string     `json:"name"`
	PID              int         `json:"pid"`
	WindowProperties *struct {
		Class string `json:"class"`
	} `json:"window_properties"`
	Nodes         []swayNode `json:"nodes"`
	FloatingNodes []swayNode `json:"floating_nodes"`
}

// parseSwayTree finds the focused leaf in the output of swaymsg -t get_tree.
func parseSwayTree(data []byte) (*window.WindowInfo, int, error) {
	var root swayNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, 0, fmt.Errorf("failed to parse sway tree: %w", err)
	}

	node := findFocused(&root)
	if node == nil {
		return nil, 0, window.ErrNoWindow
	}

	info := &window.WindowInfo{}
	if node.AppID != nil {
		info.AppName = *node.AppID
	}
	if info.AppName == "" && node.WindowProperties != nil {
		info.AppName = node.WindowProperties.Class
	}
	if node.Name != nil {
		info.WindowTitle = *node.Name
	}
	return info, node.PID, nil
}

func findFocused(n *swayNode) *swayNode {
	if n.Focused && len(n.Nodes) == 0 && len(n.FloatingNodes) == 0 {
		return n
	}
	for i := range n.Nodes {
		if f := findFocused(&n.Nodes[i]); f != nil {
			return f
		}
	}
	for i := range n.FloatingNodes {
		if f := findFocused(&n.FloatingNodes[i]); f != nil {
			return f
		}
	}
	return nil
}

func (d *Detector) focusedHyprland() (*window.WindowInfo, int, error) {
	output, err := exec.Command("hyprctl", "activewindow", "-j").Output()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute hyprctl: %w", err)
	}
	return parseHyprlandWindow(output)
}

// parseHyprlandWindow parses the output of hyprctl activewindow -j.
func parseHyprlandWindow(data []byte) (*window.WindowInfo, int, error) {
	var win struct {
		Class        string `json:"class"`
		InitialClass string `json:"initialClass"`
		Title        string `json:"title"`
		PID          int    `json:"pid"`
	}
	if err := json.Unmarshal(data, &win); err != nil {
		return nil, 0, fmt.Errorf("failed to parse hyprctl output: %w", err)
	}

	name := win.Class
	if name == "" {
		name = win.InitialClass
	}
	if name == "" && win.PID <= 0 {
		return nil, 0, window.ErrNoWindow
	}

	return &window.WindowInfo{AppName: name, WindowTitle: win.Title}, win.PID, nil
}

// sessionBus connects to the session bus once. Callers hold d.mu.
func (d *Detector) sessionBus() error {
	if d.bus != nil {
		return nil
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	d.bus = conn
	return nil
}

// focusedGnome asks GNOME Shell through org.gnome.Shell.Eval. Recent GNOME
// releases only allow Eval in unsafe mode; the call then reports failure.
func (d *Detector) focusedGnome() (*window.WindowInfo, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.sessionBus(); err != nil {
		return nil, 0, err
	}

	var (
		ok     bool
		output string
	)
	obj := d.bus.Object("org.gnome.Shell", "/org/gnome/Shell")
	if err := obj.Call("org.gnome.Shell.Eval", 0, gnomeFocusScript).Store(&ok, &output); err != nil {
		return nil, 0, fmt.Errorf("GNOME Shell Eval failed: %w", err)
	}
	if !ok {
		return nil, 0, fmt.Errorf("GNOME Shell Eval refused (unsafe mode disabled)")
	}
	return parseGnomeResult(output)
}

// parseGnomeResult decodes the value returned by gnomeFocusScript. Eval
// returns the script result as JSON, so the object arrives wrapped in a JSON
// string.
func parseGnomeResult(output string) (*window.WindowInfo, int, error) {
	output = strings.TrimSpace(output)

	var inner string
	if err := json.Unmarshal([]byte(output), &inner); err == nil {
		output = inner
	}
	if output == "" || output == "null" {
		return nil, 0, window.ErrNoWindow
	}

	var win struct {
		WMClass string `json:"wm_class"`
		Title   string `json:"title"`
		PID     int    `json:"pid"`
	}
	if err := json.Unmarshal([]byte(output), &win); err != nil {
		return nil, 0, fmt.Errorf("failed to parse GNOME Shell reply: %w", err)
	}
	return &window.WindowInfo{AppName: win.WMClass, WindowTitle: win.Title}, win.PID, nil
}

func commandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

func processName(pid int32) (string, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return "", err
	}
	return p.Name()
}

// Close cleans up resources
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bus != nil {
		err := d.bus.Close()
		d.bus = nil
		return err
	}
	return nil
}
