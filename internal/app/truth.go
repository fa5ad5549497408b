package app

import (
	"time"

	"github.com/ayusman/mudra/internal/accuracy"
	"github.com/ayusman/mudra/internal/gesture"
)

// DeclareGesture records that the user is performing sym now.
func (a *App) DeclareGesture(sym gesture.Symbol) error {
	return a.session.DeclareGesture(sym, time.Now())
}

// SetHandPresent sets the ground-truth hand presence; nil clears it.
func (a *App) SetHandPresent(present *bool) {
	a.session.SetHandPresent(present)
}

// HandPresent returns the ground-truth hand presence, or nil when unset.
func (a *App) HandPresent() *bool {
	return a.session.HandPresent()
}

// Metrics returns a snapshot of the accuracy metrics.
func (a *App) Metrics() accuracy.Metrics {
	return a.session.Metrics()
}

// Export encodes the accuracy report in format.
func (a *App) Export(format accuracy.Format) ([]byte, error) {
	return a.session.Export(format)
}

// ResetAccuracy clears the accuracy ledger.
func (a *App) ResetAccuracy() {
	a.session.ResetAccuracy()
}
