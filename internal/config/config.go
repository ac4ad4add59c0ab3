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
	// MQTT
	MQTTBroker          string
	MQTTClientIDSentry  string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string
	MQTTClientIDDisplay string

	// Topics
	TopicTrigger string
	TopicState   string
	TopicResult  string

	// Gyro source: "spi" reads the L3GD20 directly, "serial" reads
	// count lines from a tethered board, "mock" synthesizes samples.
	GyroSource     string
	GyroSPIDevice  string
	GyroDRDYPin    string
	GyroSerialPort string
	GyroSerialBaud int
	// Full scale in degrees per second: 245, 500 or 2000.
	GyroFullScale int

	// Calibration
	CalSampleCount    int
	CalSampleInterval int // milliseconds
	// "signed" tracks the raw running maximum, "absolute" tracks the
	// largest magnitude.
	CalThresholdMode string

	// Gesture pipeline
	FilterWindowSize     int
	CountdownSeconds     int
	RecordDurationMS     int
	SampleIntervalMS     int
	TrimEpsilon          float64
	CorrelationThreshold float64

	// Web Server
	WebServerPort int

	// Display
	DisplayUpdateInterval int // milliseconds
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

// Load reads the configuration file and returns a Config struct.
// Keys not present in the file keep their defaults.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{
		MQTTClientIDSentry:    "gesture-sentry",
		MQTTClientIDConsole:   "gesture-console",
		MQTTClientIDWeb:       "gesture-web",
		MQTTClientIDDisplay:   "gesture-display",
		TopicTrigger:          "sentry/trigger",
		TopicState:            "sentry/state",
		TopicResult:           "sentry/result",
		GyroSerialBaud:        115200,
		GyroFullScale:         500,
		CalSampleCount:        128,
		CalSampleInterval:     10,
		CalThresholdMode:      "signed",
		FilterWindowSize:      5,
		CountdownSeconds:      3,
		RecordDurationMS:      3000,
		SampleIntervalMS:      50,
		TrimEpsilon:           1e-5,
		CorrelationThreshold:  0.8,
		WebServerPort:         8080,
		DisplayUpdateInterval: 250,
	}
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
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_SENTRY":
		c.MQTTClientIDSentry = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_TRIGGER":
		c.TopicTrigger = value
	case "TOPIC_STATE":
		c.TopicState = value
	case "TOPIC_RESULT":
		c.TopicResult = value

	// Gyro hardware
	case "GYRO_SOURCE":
		if value != "spi" && value != "serial" && value != "mock" {
			return fmt.Errorf("GYRO_SOURCE must be spi, serial or mock, got %q", value)
		}
		c.GyroSource = value
	case "GYRO_SPI_DEVICE":
		c.GyroSPIDevice = value
	case "GYRO_DRDY_PIN":
		c.GyroDRDYPin = value
	case "GYRO_SERIAL_PORT":
		c.GyroSerialPort = value
	case "GYRO_SERIAL_BAUD":
		baud, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GYRO_SERIAL_BAUD %q: %w", value, err)
		}
		c.GyroSerialBaud = baud
	case "GYRO_FULL_SCALE":
		fs, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GYRO_FULL_SCALE %q: %w", value, err)
		}
		if fs != 245 && fs != 500 && fs != 2000 {
			return fmt.Errorf("GYRO_FULL_SCALE must be 245, 500 or 2000, got %d", fs)
		}
		c.GyroFullScale = fs

	// Calibration
	case "CAL_SAMPLE_COUNT":
		count, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CAL_SAMPLE_COUNT %q: %w", value, err)
		}
		if count < 1 {
			return fmt.Errorf("CAL_SAMPLE_COUNT must be positive, got %d", count)
		}
		c.CalSampleCount = count
	case "CAL_SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CAL_SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.CalSampleInterval = interval
	case "CAL_THRESHOLD_MODE":
		if value != "signed" && value != "absolute" {
			return fmt.Errorf("CAL_THRESHOLD_MODE must be signed or absolute, got %q", value)
		}
		c.CalThresholdMode = value

	// Gesture pipeline
	case "FILTER_WINDOW_SIZE":
		size, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid FILTER_WINDOW_SIZE %q: %w", value, err)
		}
		if size < 1 {
			return fmt.Errorf("FILTER_WINDOW_SIZE must be positive, got %d", size)
		}
		c.FilterWindowSize = size
	case "COUNTDOWN_SECONDS":
		secs, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid COUNTDOWN_SECONDS %q: %w", value, err)
		}
		if secs < 0 {
			return fmt.Errorf("COUNTDOWN_SECONDS must not be negative, got %d", secs)
		}
		c.CountdownSeconds = secs
	case "RECORD_DURATION_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid RECORD_DURATION_MS %q: %w", value, err)
		}
		if ms < 1 {
			return fmt.Errorf("RECORD_DURATION_MS must be positive, got %d", ms)
		}
		c.RecordDurationMS = ms
	case "SAMPLE_INTERVAL_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_INTERVAL_MS %q: %w", value, err)
		}
		if ms < 0 {
			return fmt.Errorf("SAMPLE_INTERVAL_MS must not be negative, got %d", ms)
		}
		c.SampleIntervalMS = ms
	case "TRIM_EPSILON":
		eps, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid TRIM_EPSILON %q: %w", value, err)
		}
		if eps < 0 {
			return fmt.Errorf("TRIM_EPSILON must not be negative, got %v", eps)
		}
		c.TrimEpsilon = eps
	case "CORRELATION_THRESHOLD":
		thr, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid CORRELATION_THRESHOLD %q: %w", value, err)
		}
		if thr < -1 || thr > 1 {
			return fmt.Errorf("CORRELATION_THRESHOLD must be in [-1, 1], got %v", thr)
		}
		c.CorrelationThreshold = thr

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		if interval < 1 {
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
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	switch c.GyroSource {
	case "":
		return fmt.Errorf("GYRO_SOURCE is required")
	case "spi":
		if c.GyroSPIDevice == "" {
			return fmt.Errorf("GYRO_SPI_DEVICE is required when GYRO_SOURCE=spi")
		}
		if c.GyroDRDYPin == "" {
			return fmt.Errorf("GYRO_DRDY_PIN is required when GYRO_SOURCE=spi")
		}
	case "serial":
		if c.GyroSerialPort == "" {
			return fmt.Errorf("GYRO_SERIAL_PORT is required when GYRO_SOURCE=serial")
		}
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

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
// Uses read lock (configMu.RLock) to allow multiple concurrent readers without blocking.
// This is thread-safe and efficient for concurrent access across goroutines.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
