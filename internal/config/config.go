// Package config loads the YAML configuration shared by the bomc1 tools.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Device      DeviceConfig      `yaml:"device"`
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	Log         LogConfig         `yaml:"log"`
	Monitor     MonitorConfig     `yaml:"monitor"`
	Redis       RedisConfig       `yaml:"redis"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
}

type DeviceConfig struct {
	// Path pins a usbfs node; empty means the first BOMC1 found.
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

type AcquisitionConfig struct {
	Count          int    `yaml:"count"`
	RawCount       int    `yaml:"raw_count"`
	DarkCurrent    bool   `yaml:"dark_current"`
	MovingAverage  bool   `yaml:"moving_average"`
	TotalAverage   bool   `yaml:"total_average"`
	MovingAvgDepth uint8  `yaml:"moving_avg_depth"`
	TotalAvgDepth  uint8  `yaml:"total_avg_depth"`
	Window         int    `yaml:"window"`
	DarkReference  string `yaml:"dark_reference"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitorConfig struct {
	Enabled     bool `yaml:"enabled"`
	MetricsPort int  `yaml:"metrics_port"`
}

type RedisConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	Channel    string `yaml:"channel"`
	HistoryLen int64  `yaml:"history_len"`
}

type MQTTConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Broker   string        `yaml:"broker"`
	ClientID string        `yaml:"client_id"`
	Topic    string        `yaml:"topic"`
	QoS      byte          `yaml:"qos"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LoadConfig reads path on top of DefaultConfig, so a file only needs the
// keys it changes.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the driver or pipeline cannot work with.
func (c *Config) Validate() error {
	if c.Device.Timeout <= 0 {
		return fmt.Errorf("device.timeout must be positive, got %s", c.Device.Timeout)
	}
	if c.Acquisition.Count < 1 {
		return fmt.Errorf("acquisition.count must be at least 1, got %d", c.Acquisition.Count)
	}
	if c.Acquisition.RawCount < 0 {
		return fmt.Errorf("acquisition.raw_count must not be negative, got %d", c.Acquisition.RawCount)
	}
	if c.Acquisition.Window < 1 {
		return fmt.Errorf("acquisition.window must be at least 1, got %d", c.Acquisition.Window)
	}
	if c.MQTT.Timeout <= 0 {
		return fmt.Errorf("mqtt.timeout must be positive, got %s", c.MQTT.Timeout)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Timeout: 2000 * time.Millisecond,
		},
		Acquisition: AcquisitionConfig{
			Count:         1,
			DarkCurrent:   true,
			MovingAverage: true,
			TotalAverage:  true,
			Window:        10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Monitor: MonitorConfig{
			Enabled:     false,
			MetricsPort: 9090,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			Channel:    "bomc1_spectra",
			HistoryLen: 1000,
		},
		MQTT: MQTTConfig{
			Broker:   "tcp://localhost:1883",
			ClientID: "bomc1",
			Topic:    "bomc1/spectrum",
			QoS:      1,
			Timeout:  5 * time.Second,
		},
	}
}
