// Package tray provides the system tray menu of mudra. Besides the
// enable toggle it is the ground-truth input used while measuring accuracy.
package tray

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/accuracy"
	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// Controls is what the tray menu drives.
type Controls interface {
	SetEnabled(enabled bool)
	IsEnabled() bool
	Subscribe() (<-chan app.Event, func())

	DeclareGesture(sym gesture.Symbol) error
	SetHandPresent(present *bool)
	ResetAccuracy()
	ExportFile(format accuracy.Format) (string, error)
	SaveSession(label string) (*store.Session, error)
}

// Tray represents the system tray application.
type Tray struct {
	controls Controls
	onOpenUI func()
	onQuit   func()
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuLastCommand *systray.MenuItem
	menuStatus      *systray.MenuItem
}

// New creates a new Tray driving c.
func New(c Controls) *Tray {
	return &Tray{controls: c}
}

// OnOpenUI sets the callback function to be called when the open UI menu item is clicked.
func (t *Tray) OnOpenUI(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpenUI = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
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

// Quit stops the tray event loop.
func (t *Tray) Quit() {
	systray.Quit()
}

type declareItem struct {
	item *systray.MenuItem
	sym  gesture.Symbol
}

type exportItem struct {
	item   *systray.MenuItem
	format accuracy.Format
}

func (t *Tray) onReady() {
	systray.SetTitle("mudra")
	systray.SetTooltip("mudra gesture playback")

	t.menuToggle = systray.AddMenuItem(toggleTitle(t.controls.IsEnabled()), "Toggle gesture control")
	systray.AddSeparator()

	t.menuLastCommand = systray.AddMenuItem(lastCommandTitle(""), "Last playback command")
	t.menuLastCommand.Disable()
	t.menuStatus = systray.AddMenuItem("", "Last ground-truth action")
	t.menuStatus.Hide()
	systray.AddSeparator()

	truth := systray.AddMenuItem("Ground truth", "Declare what you are doing")
	handPresent := truth.AddSubMenuItem("Hand present", "A hand is in view")
	handAbsent := truth.AddSubMenuItem("Hand absent", "No hand is in view")
	handClear := truth.AddSubMenuItem("Clear hand presence", "Stop scoring hand presence")
	declares := []declareItem{
		{truth.AddSubMenuItem("Declare AVANCER", "Seek forward gesture"), gesture.Avancer},
		{truth.AddSubMenuItem("Declare RECULER", "Seek backward gesture"), gesture.Reculer},
		{truth.AddSubMenuItem("Declare TOGGLE_PLAY_PAUSE", "Open palm gesture"), gesture.TogglePlayPause},
	}

	metrics := systray.AddMenuItem("Accuracy", "Accuracy measurement")
	exports := []exportItem{
		{metrics.AddSubMenuItem("Export JSON", "Write a JSON report"), accuracy.FormatJSON},
		{metrics.AddSubMenuItem("Export CSV", "Write a CSV report"), accuracy.FormatCSV},
		{metrics.AddSubMenuItem("Export confusion image", "Write the confusion matrix as PNG"), accuracy.FormatPNG},
	}
	saveSession := metrics.AddSubMenuItem("Save session", "Store the current report")
	reset := metrics.AddSubMenuItem("Reset", "Clear all counters")
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open UI...", "Open the web interface")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit mudra")

	for _, d := range declares {
		go func() {
			for range d.item.ClickedCh {
				t.handleDeclare(d.sym)
			}
		}()
	}
	for _, e := range exports {
		go func() {
			for range e.item.ClickedCh {
				t.handleExport(e.format)
			}
		}()
	}

	go t.watchEvents()

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-handPresent.ClickedCh:
				t.handleHand(true)
			case <-handAbsent.ClickedCh:
				t.handleHand(false)
			case <-handClear.ClickedCh:
				t.controls.SetHandPresent(nil)
				t.setStatus(handTitle(nil))
			case <-saveSession.ClickedCh:
				t.handleSaveSession()
			case <-reset.ClickedCh:
				t.controls.ResetAccuracy()
				t.setStatus("Metrics reset")
			case <-menuOpen.ClickedCh:
				t.handleOpenUI()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// watchEvents keeps the last command item current.
func (t *Tray) watchEvents() {
	events, cancel := t.controls.Subscribe()
	defer cancel()

	for ev := range events {
		if ev.Type == app.EventCommand {
			t.SetLastCommand(ev.Command)
		}
	}
}

func (t *Tray) handleToggle() {
	enabled := !t.controls.IsEnabled()
	t.controls.SetEnabled(enabled)

	t.mu.RLock()
	t.menuToggle.SetTitle(toggleTitle(enabled))
	t.mu.RUnlock()
}

func (t *Tray) handleDeclare(sym gesture.Symbol) {
	if err := t.controls.DeclareGesture(sym); err != nil {
		log.Printf("[tray] %v", err)
		return
	}
	t.setStatus("Declared " + string(sym))
}

func (t *Tray) handleHand(present bool) {
	t.controls.SetHandPresent(&present)
	t.setStatus(handTitle(&present))
}

func (t *Tray) handleExport(format accuracy.Format) {
	path, err := t.controls.ExportFile(format)
	if err != nil {
		log.Printf("[tray] export failed: %v", err)
		t.setStatus("Export failed")
		return
	}
	t.setStatus("Exported " + path)
}

func (t *Tray) handleSaveSession() {
	sess, err := t.controls.SaveSession("tray " + time.Now().Format(time.DateTime))
	if err != nil {
		log.Printf("[tray] save session failed: %v", err)
		t.setStatus("Save failed")
		return
	}
	t.setStatus(fmt.Sprintf("Saved session (%d frames)", sess.TotalFrames))
}

func (t *Tray) handleOpenUI() {
	t.mu.RLock()
	callback := t.onOpenUI
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

func (t *Tray) setStatus(s string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(s)
		t.menuStatus.Show()
	}
}

// SetLastCommand updates the last command display in the menu.
func (t *Tray) SetLastCommand(cmd gesture.Command) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastCommand != nil {
		t.menuLastCommand.SetTitle(lastCommandTitle(cmd))
	}
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastCommandTitle(cmd gesture.Command) string {
	if cmd == gesture.CmdNone {
		return "Last: none"
	}
	return "Last: " + string(cmd)
}

func handTitle(present *bool) string {
	switch {
	case present == nil:
		return "Hand presence cleared"
	case *present:
		return "Hand present"
	default:
		return "Hand absent"
	}
}
