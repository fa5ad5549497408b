package app

import (
	"fmt"
	"log"

	"github.com/ayusman/mudra/internal/config"
)

// merged returns the current base configuration with store setting
// overrides applied.
func (a *App) merged() (*config.Config, error) {
	a.mu.RLock()
	base := a.base
	a.mu.RUnlock()
	return a.mergeOver(base)
}

// mergeOver returns a copy of base with store setting overrides applied.
func (a *App) mergeOver(base *config.Config) (*config.Config, error) {
	c := *base
	if a.store != nil {
		settings, err := a.store.Settings().All()
		if err != nil {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
		c.MergeSettings(settings)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Reload replaces the base configuration, typically after the config file
// changed, and applies it with the stored overrides. A configuration that fails validation is rejected and the current one
// stays in effect.
func (a *App) Reload(base *config.Config) error {
	c, err := a.mergeOver(base)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.base = base
	a.mu.Unlock()

	a.apply(c)
	return nil
}

// Settings returns the stored setting overrides.
func (a *App) Settings() (map[string]string, error) {
	if a.store == nil {
		return map[string]string{}, nil
	}
	return a.store.Settings().All()
}

// UpdateSetting validates, stores and applies a setting override.
func (a *App) UpdateSetting(key, value string) error {
	if err := config.ValidateSetting(key, value); err != nil {
		return err
	}
	if a.store == nil {
		return fmt.Errorf("settings require a store")
	}
	if err := a.store.Settings().Set(key, value); err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}

	c, err := a.merged()
	if err != nil {
		return err
	}
	a.apply(c)
	return nil
}

// DeleteSetting removes a setting override and falls back to the base value.
func (a *App) DeleteSetting(key string) error {
	if a.store == nil {
		return nil
	}
	if err := a.store.Settings().Delete(key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}

	c, err := a.merged()
	if err != nil {
		return err
	}
	a.apply(c)
	return nil
}

// apply makes c the effective configuration and pushes the live-tunable
// values to the running loops.
func (a *App) apply(c *config.Config) {
	a.mu.Lock()
	old := a.cfg
	a.cfg = c
	a.mu.Unlock()

	if c.Camera.FPS != old.Camera.FPS {
		a.camera.SetFPS(c.Camera.FPS)
		select {
		case a.cameraReset <- struct{}{}:
		default:
		}
	}
	if c.Skip() != old.Skip() {
		a.session.SetSkip(c.Skip())
	}
	if c.Gesture.StableFrames != old.Gesture.StableFrames {
		a.session.SetStableFrames(c.Gesture.StableFrames)
	}
	if c.Detector.Kind != old.Detector.Kind {
		log.Printf("[app] detector kind %s takes effect after restart", c.Detector.Kind)
	}
	if c.Playback.VideoPath != old.Playback.VideoPath && c.Playback.VideoPath != "" {
		if err := a.LoadVideo(c.Playback.VideoPath); err != nil {
			log.Printf("[app] %v", err)
		}
	}
	if c.Accuracy.AutosaveSchedule != old.Accuracy.AutosaveSchedule && a.IsRunning() {
		a.autosave.stop()
		if err := a.autosave.start(c.Accuracy.AutosaveSchedule); err != nil {
			log.Printf("[app] autosave disabled: %v", err)
		}
	}

	log.Println("[app] configuration applied")
}

// WatchConfig reloads the configuration whenever the file at path changes.
// The returned watcher must be stopped by the caller.
func (a *App) WatchConfig(path string) (*config.Watcher, error) {
	return config.Watch(path, func(c *config.Config) {
		if err := a.Reload(c); err != nil {
			log.Printf("[app] reload rejected: %v", err)
		}
	})
}
