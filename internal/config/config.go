package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// Gateway HTTP server (sensor ingest, consumer hub, status API)
	ListenAddr string
	StaticDir  string

	// MQTT. An empty broker disables MQTT publishing entirely.
	MQTTBroker   string
	MQTTClientID string

	// Topics
	TopicPose      string
	TopicStats     string
	TopicReference string

	// Calibration
	CalibrationWindowMS int

	// Skeleton rig definition; empty selects the built-in humanoid rig.
	SkeletonPath string

	// Reference persistence directory; empty disables persistence.
	ReferenceDir string

	// Recording database path; empty disables recording.
	RecordDBPath string

	// Serial bench link; empty port disables it.
	SerialPort     string
	SerialBaudRate int

	// Status display (SSD1306 over I2C)
	DisplayEnabled        bool
	DisplayI2CBus         string // empty selects the first available bus
	DisplayUpdateInterval int    // milliseconds
}

// Default returns the configuration a gateway runs with when a key is
// absent from the config file.
func Default() *Config {
	return &Config{
		ListenAddr:            ":8887",
		StaticDir:             "./web",
		MQTTClientID:          "mocap-gateway",
		TopicPose:             "mocap/pose",
		TopicStats:            "mocap/stats",
		TopicReference:        "mocap/reference",
		CalibrationWindowMS:   30000,
		SerialBaudRate:        115200,
		DisplayUpdateInterval: 500,
	}
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported (lowercase) so other packages cannot access it directly.
//     This enforces encapsulation and prevents external code from modifying config without proper locking.
//     Has package-level scope (visible to all functions in this package, persists for program lifetime).
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock (Lock) for initialization,
//     read lock (RLock) for Get() allows multiple concurrent readers without blocking each other.
//
// External code must use InitGlobal() to set and Get() to read, ensuring thread safety.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct. Keys
// that do not appear keep their Default() value.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Gateway server
	case "LISTEN_ADDR":
		c.ListenAddr = value
	case "STATIC_DIR":
		c.StaticDir = value

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value

	// Topics
	case "TOPIC_POSE":
		c.TopicPose = value
	case "TOPIC_STATS":
		c.TopicStats = value
	case "TOPIC_REFERENCE":
		c.TopicReference = value

	// Calibration
	case "CALIBRATION_WINDOW_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CALIBRATION_WINDOW_MS %q: %w", value, err)
		}
		if ms <= 0 {
			return fmt.Errorf("CALIBRATION_WINDOW_MS must be positive, got %d", ms)
		}
		c.CalibrationWindowMS = ms

	// Skeleton
	case "SKELETON_PATH":
		c.SkeletonPath = value

	// Persistence
	case "REFERENCE_DIR":
		c.ReferenceDir = value
	case "RECORD_DB_PATH":
		c.RecordDBPath = value

	// Serial bench link
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		if rate <= 0 {
			return fmt.Errorf("SERIAL_BAUD_RATE must be positive, got %d", rate)
		}
		c.SerialBaudRate = rate

	// Display
	case "DISPLAY_ENABLED":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = enabled
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		if interval <= 0 {
			return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive, got %d", interval)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("LISTEN_ADDR is required")
	}
	if c.MQTTBroker != "" && c.MQTTClientID == "" {
		return fmt.Errorf("MQTT_CLIENT_ID is required when MQTT_BROKER is set")
	}
	if c.SerialPort != "" && c.SerialBaudRate == 0 {
		return fmt.Errorf("SERIAL_BAUD_RATE is required when SERIAL_PORT is set")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
// Acquires write lock (configMu.Lock) during initialization to prevent concurrent access.
// This is the only function that can set globalConfig.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// InitGlobalDefault initializes the global configuration with defaults,
// for binaries run without a config file.
func InitGlobalDefault() {
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig = Default()
	})
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
// Uses read lock (configMu.RLock) to allow multiple concurrent readers without blocking.
// This is thread-safe and efficient for concurrent access across goroutines.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
