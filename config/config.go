// Package config loads gcsim settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Machine kinds.
const (
	MachineSim  = "sim"
	MachineGrbl = "grbl"
	MachineSPJS = "spjs"
)

type Config struct {
	Addr     string
	DataDir  string
	LogLevel string

	Machine    string
	SerialPort string
	Baud       int
	SPJSURL    string

	// Profile is a YAML machine profile for the simulator; empty for the default.
	Profile string

	Tick          time.Duration
	PlaybackSpeed float64
}

// Load reads the configuration. Variables already set in the environment
// take precedence over the .env file. Named env files must exist; a
// missing default .env is ignored.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if len(envFiles) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env: %w", err)
		}
	}

	cfg := &Config{
		Addr:          getEnv("GCSIM_ADDR", ":9091"),
		DataDir:       getEnv("GCSIM_DATA_DIR", "./data"),
		LogLevel:      getEnv("GCSIM_LOG_LEVEL", "info"),
		Machine:       getEnv("GCSIM_MACHINE", MachineSim),
		SerialPort:    getEnv("GCSIM_SERIAL_PORT", "/dev/ttyUSB0"),
		Baud:          getEnvAsInt("GCSIM_BAUD", 115200),
		SPJSURL:       getEnv("GCSIM_SPJS_URL", "ws://cnc-bridge:8989/ws"),
		Profile:       getEnv("GCSIM_PROFILE", ""),
		Tick:          getEnvAsDuration("GCSIM_TICK", 50*time.Millisecond),
		PlaybackSpeed: getEnvAsFloat("GCSIM_PLAYBACK_SPEED", 1),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.Machine {
	case MachineSim, MachineGrbl, MachineSPJS:
	default:
		return fmt.Errorf("unknown machine %q (want %s, %s or %s)", c.Machine, MachineSim, MachineGrbl, MachineSPJS)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("tick must be positive, got %s", c.Tick)
	}
	return nil
}

// NewLogger builds a text logger at the named level. "off" and "none"
// discard everything; unknown levels fall back to info.
func NewLogger(level string, w io.Writer) *logrus.Logger {
	logger := logrus.New()

	if level == "off" || level == "none" {
		logger.SetOutput(io.Discard)
	} else {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			lvl = logrus.InfoLevel
		}
		logger.SetLevel(lvl)
		logger.SetOutput(w)
	}

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return logger
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(name string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(name, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(name string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(name, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(name string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(name, "")); err == nil {
		return value
	}
	return defaultValue
}
