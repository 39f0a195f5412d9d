// Package tray provides a system tray interface for the Handfield visualizer.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle     func(enabled bool)
	onVisualizer func()
	onQuit       func()
	enabled      bool
	mu           sync.RWMutex

	// Menu items stored for later updates
	menuToggle  *systray.MenuItem
	menuPattern *systray.MenuItem
}

// New creates a new Tray instance with tracking enabled by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback function to be called when gesture tracking
// is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnVisualizer sets the callback function to be called when the
// visualizer menu item is clicked.
func (t *Tray) OnVisualizer(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onVisualizer = fn
}

// OnQuit sets the callback function to be called when the quit menu item
// is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Handfield")
	systray.SetTooltip("Handfield Gesture Visualizer")

	t.menuToggle = systray.AddMenuItem("● Tracking", "Toggle gesture tracking")
	systray.AddSeparator()

	t.menuPattern = systray.AddMenuItem("Pattern: sphere", "Active particle pattern")
	t.menuPattern.Disable()
	systray.AddSeparator()

	menuVisualizer := systray.AddMenuItem("Open Visualizer...", "Open visualizer in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Handfield")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuVisualizer.ClickedCh:
				t.handleVisualizer()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if enabled {
		t.menuToggle.SetTitle("● Tracking")
	} else {
		t.menuToggle.SetTitle("○ Paused")
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleVisualizer handles the visualizer menu item click.
func (t *Tray) handleVisualizer() {
	t.mu.RLock()
	callback := t.onVisualizer
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetPattern updates the active pattern display in the menu.
func (t *Tray) SetPattern(name string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuPattern != nil {
		if name == "" {
			t.menuPattern.SetTitle("Pattern: none")
		} else {
			t.menuPattern.SetTitle("Pattern: " + name)
		}
	}
}

// IsEnabled returns the current tracking state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
