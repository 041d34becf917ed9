// Package config loads handcam settings from the environment and optional .env files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ayusman/handcam/internal/capture"
)

// Config holds runtime configuration.
type Config struct {
	Addr            string
	DataDir         string
	WebDir          string
	ScriptPath      string
	FrontCamera     int
	RearCamera      int
	Facing          capture.Facing
	Orientation     string
	Screen          capture.Size
	FPS             int
	ViewportWidth   float64
	ChangeThreshold float64
	Tray            bool
}

// DBPath returns the sqlite database location inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "handcam.db")
}

// Load reads the first .env found in the working directory or next to the
// executable, then builds a Config from HANDCAM_* environment variables.
// Variables already set in the environment win over .env values.
func Load() (*Config, error) {
	envPaths := []string{".env"}
	if execPath, err := os.Executable(); err == nil {
		envPaths = append(envPaths, filepath.Join(filepath.Dir(execPath), ".env"))
	}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return nil, fmt.Errorf("load %s: %w", envPath, err)
			}
			break
		}
	}

	return FromEnv()
}

// FromEnv builds a Config from the current environment.
func FromEnv() (*Config, error) {
	dataDir := os.Getenv("HANDCAM_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".handcam")
	}

	var errs []string
	intVar := func(key string, def int) int {
		v, err := getInt(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	floatVar := func(key string, def float64) float64 {
		v, err := getFloat(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	cfg := &Config{
		Addr:        getEnvWithDefault("HANDCAM_ADDR", ":8080"),
		DataDir:     dataDir,
		WebDir:      os.Getenv("HANDCAM_WEB_DIR"),
		ScriptPath:  os.Getenv("HANDCAM_SCRIPT"),
		FrontCamera: intVar("HANDCAM_FRONT_CAMERA", 0),
		RearCamera:  intVar("HANDCAM_REAR_CAMERA", 1),
		Facing:      capture.Facing(getEnvWithDefault("HANDCAM_FACING", string(capture.FacingUser))),
		Orientation: getEnvWithDefault("HANDCAM_ORIENTATION", "landscape-primary"),
		Screen: capture.Size{
			Width:  intVar("HANDCAM_SCREEN_WIDTH", 1920),
			Height: intVar("HANDCAM_SCREEN_HEIGHT", 1080),
		},
		FPS:             intVar("HANDCAM_FPS", capture.DefaultFPS),
		ViewportWidth:   floatVar("HANDCAM_VIEWPORT_WIDTH", 1280),
		ChangeThreshold: floatVar("HANDCAM_CHANGE_THRESHOLD", capture.DefaultChangeThreshold),
		Tray:            strings.ToLower(os.Getenv("HANDCAM_TRAY")) == "true",
	}

	if !cfg.Facing.Valid() {
		errs = append(errs, fmt.Sprintf("HANDCAM_FACING: unknown facing mode %q", cfg.Facing))
	}
	if cfg.FPS <= 0 {
		errs = append(errs, fmt.Sprintf("HANDCAM_FPS: must be positive, got %d", cfg.FPS))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
