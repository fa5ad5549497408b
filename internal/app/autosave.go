package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/accuracy"
	"github.com/ayusman/mudra/internal/store"
	"github.com/robfig/cron/v3"
)

// ErrNoStore is returned when saving sessions without a store.
var ErrNoStore = errors.New("no store configured")

// autosaver periodically saves the accuracy ledger as a session.
type autosaver struct {
	app *App

	mu        sync.Mutex
	cron      *cron.Cron
	lastSaved int
}

func newAutosaver(a *App) *autosaver {
	return &autosaver{app: a}
}

// start schedules autosaves with a cron spec. An empty spec or a missing
// store disables autosave.
func (s *autosaver) start(spec string) error {
	if spec == "" || s.app.store == nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("invalid autosave schedule %q: %w", spec, err)
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	c.Start()
	log.Printf("[autosave] scheduled %s", spec)
	return nil
}

func (s *autosaver) stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// run saves the ledger when frames were recorded since the last autosave.
func (s *autosaver) run() {
	frames := s.app.session.Metrics().Detection.TotalFrames

	s.mu.Lock()
	if frames == 0 || frames == s.lastSaved {
		s.mu.Unlock()
		return
	}
	s.lastSaved = frames
	s.mu.Unlock()

	sess, err := s.app.SaveSession("autosave " + time.Now().Format(time.DateTime))
	if err != nil {
		log.Printf("[autosave] error saving session: %v", err)
		return
	}
	log.Printf("[autosave] saved session %s (%d frames)", sess.ID, sess.TotalFrames)
}

// SaveSession stores the current accuracy report under label.
func (a *App) SaveSession(label string) (*store.Session, error) {
	if a.store == nil {
		return nil, ErrNoStore
	}

	report := a.session.Report()
	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	sess := &store.Session{
		Label:         label,
		DetectorKind:  string(a.session.Kind()),
		TotalFrames:   report.Detection.TotalFrames,
		DetectionRate: report.Detection.DetectionRate,
		Report:        data,
	}
	if err := a.store.Sessions().Create(sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return sess, nil
}

// ExportFile writes the accuracy report into the export directory and
// returns the file path. A failed export leaves the ledger untouched.
func (a *App) ExportFile(format accuracy.Format) (string, error) {
	dir := a.Config().Accuracy.ExportDir
	name := fmt.Sprintf("accuracy-%s.%s", time.Now().Format("20060102-150405"), format)
	path := filepath.Join(dir, name)

	if err := a.session.SaveFile(path, format); err != nil {
		return "", err
	}
	log.Printf("[app] exported accuracy report to %s", path)
	return path, nil
}
