// Package config loads and validates mudra configuration.
//
// Values come from, in increasing priority: built-in defaults, the JSON
// config file, environment variables (a .env file is loaded first), and
// settings saved in the store.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// Config holds the application configuration
type Config struct {
	Camera   capture.CameraConfig `json:"camera"`
	Detector detector.Config      `json:"detector"`
	Gesture  GestureConfig        `json:"gesture"`
	Playback PlaybackConfig       `json:"playback"`
	Accuracy AccuracyConfig       `json:"accuracy"`
	Server   ServerConfig         `json:"server"`
	DataDir  string               `json:"data_dir"`
	HooksDir string               `json:"hooks_dir"`
	Tray     bool                 `json:"tray"`
}

// GestureConfig holds gesture stabilization settings
type GestureConfig struct {
	// StableFrames is the bounding-box stabilization threshold.
	StableFrames int `json:"stable_frames"`
	// InferEvery runs the landmark detector on every Nth camera frame and
	// reuses the previous result in between. 1 disables skipping.
	InferEvery int `json:"infer_every"`
}

// PlaybackConfig holds video playback settings
type PlaybackConfig struct {
	VideoPath   string  `json:"video_path"`
	SkipSeconds float64 `json:"skip_seconds"`
}

// AccuracyConfig holds accuracy export settings
type AccuracyConfig struct {
	ExportDir string `json:"export_dir"`
	// AutosaveSchedule is a cron spec for saving the running session.
	// Empty disables autosave.
	AutosaveSchedule string `json:"autosave_schedule"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr      string `json:"addr"`
	StaticDir string `json:"static_dir"`
}

// Default returns a configuration with default values
func Default() *Config {
	dataDir := DefaultDataDir()
	return &Config{
		Camera:   capture.DefaultCameraConfig(),
		Detector: detector.DefaultConfig(),
		Gesture: GestureConfig{
			StableFrames: gesture.DefaultStableFrames,
			InferEvery:   2,
		},
		Playback: PlaybackConfig{
			SkipSeconds: 2,
		},
		Accuracy: AccuracyConfig{
			ExportDir:        filepath.Join(dataDir, "exports"),
			AutosaveSchedule: "@every 5m",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		DataDir:  dataDir,
		HooksDir: filepath.Join(dataDir, "hooks"),
		Tray:     true,
	}
}

// DefaultDataDir returns ~/.mudra, or ./.mudra when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mudra"
	}
	return filepath.Join(home, ".mudra")
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.json")
}

// DBPath returns the SQLite database path.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "mudra.db")
}

// Skip returns the seek distance.
func (c *Config) Skip() time.Duration {
	return time.Duration(c.Playback.SkipSeconds * float64(time.Second))
}

// FrameInterval returns the camera loop period.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(capture.ClampFPS(c.Camera.FPS))
}

// LoadFromFile loads configuration from a JSON file. Fields missing from
// the file keep their defaults.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	defaultDir := config.DataDir
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.rebaseDataDir(defaultDir)

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load builds the startup configuration. A missing config file is not an
// error; defaults are used instead.
func Load(filename string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] ignoring .env: %v", err)
	}

	config := Default()
	if filename != "" {
		loaded, err := LoadFromFile(filename)
		switch {
		case err == nil:
			config = loaded
		case errors.Is(err, os.ErrNotExist):
			log.Printf("[config] %s not found, using defaults", filename)
		default:
			return nil, err
		}
	}

	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides fields from MUDRA_* environment variables.
func (c *Config) ApplyEnv() {
	c.Server.Addr = env("MUDRA_ADDR", c.Server.Addr)
	c.Server.StaticDir = env("MUDRA_STATIC_DIR", c.Server.StaticDir)
	oldDir := c.DataDir
	c.DataDir = env("MUDRA_DATA_DIR", c.DataDir)
	c.rebaseDataDir(oldDir)
	c.HooksDir = env("MUDRA_HOOKS_DIR", c.HooksDir)
	c.Camera.DeviceID = envInt("MUDRA_CAMERA", c.Camera.DeviceID)
	c.Camera.FPS = envInt("MUDRA_FPS", c.Camera.FPS)
	c.Playback.VideoPath = env("MUDRA_VIDEO", c.Playback.VideoPath)
	c.Detector.Kind = detector.Kind(env("MUDRA_DETECTOR", string(c.Detector.Kind)))
	c.Detector.Weights = env("MUDRA_WEIGHTS", c.Detector.Weights)
	c.Accuracy.AutosaveSchedule = env("MUDRA_AUTOSAVE", c.Accuracy.AutosaveSchedule)
}

// rebaseDataDir moves HooksDir and Accuracy.ExportDir under a changed
// DataDir when they still point at their places under oldDir.
func (c *Config) rebaseDataDir(oldDir string) {
	if c.DataDir == oldDir {
		return
	}
	if c.HooksDir == filepath.Join(oldDir, "hooks") {
		c.HooksDir = filepath.Join(c.DataDir, "hooks")
	}
	if c.Accuracy.ExportDir == filepath.Join(oldDir, "exports") {
		c.Accuracy.ExportDir = filepath.Join(c.DataDir, "exports")
	}
}

// Setting keys accepted by MergeSettings.
const (
	KeyCameraFPS    = "camera_fps"
	KeySkipSeconds  = "skip_seconds"
	KeyStableFrames = "stable_frames"
	KeyInferEvery   = "infer_every"
	KeyVideoPath    = "video_path"
	KeyDetectorKind = "detector_kind"
)

// SettingKeys lists every key accepted by MergeSettings.
var SettingKeys = []string{
	KeyCameraFPS, KeySkipSeconds, KeyStableFrames,
	KeyInferEvery, KeyVideoPath, KeyDetectorKind,
}

// MergeSettings overlays settings saved in the store. Unknown keys and
// unparsable values are logged and skipped.
func (c *Config) MergeSettings(settings map[string]string) {
	for key, value := range settings {
		switch key {
		case KeyCameraFPS:
			setInt(&c.Camera.FPS, key, value)
		case KeySkipSeconds:
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				log.Printf("[config] bad value for %s: %v", key, err)
				continue
			}
			c.Playback.SkipSeconds = f
		case KeyStableFrames:
			setInt(&c.Gesture.StableFrames, key, value)
		case KeyInferEvery:
			setInt(&c.Gesture.InferEvery, key, value)
		case KeyVideoPath:
			c.Playback.VideoPath = value
		case KeyDetectorKind:
			c.Detector.Kind = detector.Kind(value)
		default:
			log.Printf("[config] unknown setting %q", key)
		}
	}
}

func setInt(dst *int, key, value string) {
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[config] bad value for %s: %v", key, err)
		return
	}
	*dst = n
}

// ValidateSetting checks a single setting before it is stored.
func ValidateSetting(key, value string) error {
	c := Default()
	valid := false
	for _, k := range SettingKeys {
		if k == key {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown setting %q", key)
	}

	var parseErr error
	switch key {
	case KeyCameraFPS, KeyStableFrames, KeyInferEvery:
		_, parseErr = strconv.Atoi(value)
	case KeySkipSeconds:
		_, parseErr = strconv.ParseFloat(value, 64)
	}
	if parseErr != nil {
		return fmt.Errorf("invalid value for %s: %w", key, parseErr)
	}

	c.MergeSettings(map[string]string{key: value})
	return c.Validate()
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Camera.FPS < capture.MinFPS || c.Camera.FPS > capture.MaxFPS {
		return fmt.Errorf("camera.fps must be between %d and %d", capture.MinFPS, capture.MaxFPS)
	}

	if c.Detector.Kind != detector.KindLandmarks && c.Detector.Kind != detector.KindBoxes {
		return fmt.Errorf("detector.kind must be %q or %q", detector.KindLandmarks, detector.KindBoxes)
	}

	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("detector.min_confidence must be between 0 and 1")
	}

	if c.Detector.Kind == detector.KindBoxes && c.Detector.Weights == "" {
		return fmt.Errorf("detector.weights is required for the boxes detector")
	}

	if c.Gesture.StableFrames < 1 {
		return fmt.Errorf("gesture.stable_frames must be positive")
	}

	if c.Gesture.InferEvery < 1 {
		return fmt.Errorf("gesture.infer_every must be positive")
	}

	if c.Playback.SkipSeconds <= 0 {
		return fmt.Errorf("playback.skip_seconds must be positive")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}

	return nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
