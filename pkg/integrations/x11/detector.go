package x11

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/shirou/gopsutil/process"

	"github.com/focuspulse/focuspulse/pkg/window"
)

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

// Detector implements window.Detector for X11 using the X protocol directly.
type Detector struct {
	mu    sync.Mutex
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

// NewDetector creates a new X11 detector. The display connection is opened
// lazily on first use.
func NewDetector() *Detector {
	return &Detector{}
}

// IsAvailable checks if an X display can be reached
func (d *Detector) IsAvailable() bool {
	if os.Getenv("DISPLAY") == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connect() == nil
}

// GetDisplayServer returns "x11"
func (d *Detector) GetDisplayServer() string {
	return "x11"
}

// connect opens the display and interns the atoms. Callers hold d.mu.
func (d *Detector) connect() error {
	if d.conn != nil {
		return nil
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return fmt.Errorf("failed to connect to X display: %w", err)
	}

	atoms := make(map[string]xproto.Atom, len(atomNames))
	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return fmt.Errorf("failed to intern atom %s: %w", name, err)
		}
		atoms[name] = reply.Atom
	}

	d.conn = conn
	d.root = xproto.Setup(conn).DefaultScreen(conn).Root
	d.atoms = atoms
	return nil
}

// reset drops a broken connection so the next call reconnects.
func (d *Detector) reset() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

// GetFocusedWindow returns information about the currently focused window
func (d *Detector) GetFocusedWindow() (*window.WindowInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.connect(); err != nil {
		return nil, err
	}

	win, err := d.activeWindow()
	if err != nil {
		// the display may have gone away
		if _, perr := xproto.GetInputFocus(d.conn).Reply(); perr != nil {
			d.reset()
		}
		return nil, err
	}

	instance, class := parseWMClass(d.property(win, d.atoms["WM_CLASS"], xproto.AtomString, 256))
	info := &window.WindowInfo{
		AppName:       class,
		WindowTitle:   d.windowName(win),
		DisplayServer: "x11",
	}
	if info.AppName == "" {
		info.AppName = instance
	}

	if pid := d.windowPID(win); pid > 0 {
		if name, err := processName(int32(pid)); err == nil {
			info.ProcessName = name
		}
	}
	if info.AppName == "" {
		info.AppName = info.ProcessName
	}
	if info.AppName == "" {
		return nil, fmt.Errorf("active window 0x%x has no class or process", uint32(win))
	}

	return info, nil
}

func (d *Detector) property(win xproto.Window, atom, atomType xproto.Atom, length uint32) []byte {
	reply, err := xproto.GetProperty(d.conn, false, win, atom, atomType, 0, length).Reply()
	if err != nil || reply == nil {
		return nil
	}
	return reply.Value
}

// activeWindow prefers _NET_ACTIVE_WINDOW and falls back to the input focus
// walked up to its top-level parent. Window managers briefly report nothing
// while focus moves, so a few attempts are made.
func (d *Detector) activeWindow() (xproto.Window, error) {
	for i := 0; i < 3; i++ {
		if data := d.property(d.root, d.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1); len(data) >= 4 {
			if win := xproto.Window(binary.LittleEndian.Uint32(data)); win != 0 && d.hasName(win) {
				return win, nil
			}
		}

		if reply, err := xproto.GetInputFocus(d.conn).Reply(); err == nil {
			if win := reply.Focus; win != 0 && win != d.root {
				if top := d.topLevel(win); top != 0 && d.hasName(top) {
					return top, nil
				}
			}
		}

		time.Sleep(20 * time.Millisecond)
	}

	return 0, window.ErrNoWindow
}

func (d *Detector) topLevel(win xproto.Window) xproto.Window {
	for {
		reply, err := xproto.QueryTree(d.conn, win).Reply()
		if err != nil || reply.Parent == d.root || reply.Parent == 0 {
			return win
		}
		win = reply.Parent
	}
}

func (d *Detector) hasName(win xproto.Window) bool {
	if len(d.property(win, d.atoms["_NET_WM_NAME"], d.atoms["UTF8_STRING"], 1)) > 0 {
		return true
	}
	if len(d.property(win, d.atoms["WM_NAME"], xproto.AtomString, 1)) > 0 {
		return true
	}
	return len(d.property(win, d.atoms["WM_CLASS"], xproto.AtomString, 1)) > 0
}

func (d *Detector) windowName(win xproto.Window) string {
	if data := d.property(win, d.atoms["_NET_WM_NAME"], d.atoms["UTF8_STRING"], 256); len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}
	if data := d.property(win, d.atoms["WM_NAME"], xproto.AtomString, 256); len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}
	return ""
}

func (d *Detector) windowPID(win xproto.Window) uint32 {
	data := d.property(win, d.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if len(data) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}

// parseWMClass splits a WM_CLASS value, "instance\x00class\x00".
func parseWMClass(data []byte) (instance, class string) {
	value := strings.TrimRight(string(data), "\x00")
	if value == "" {
		return "", ""
	}

	parts := strings.Split(value, "\x00")
	instance = strings.TrimSpace(parts[0])
	if len(parts) >= 2 {
		class = strings.TrimSpace(parts[1])
	}
	return instance, class
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
	d.reset()
	return nil
}
