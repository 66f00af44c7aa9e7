// Package config loads the daemon configuration from a YAML file.
// Every field has a default so the daemon runs with no file at all;
// command-line flags may override the result.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/QuantumEF/aircond/internal/control"
)

// Config is the full daemon configuration.
type Config struct {
	GPIO       GPIOConfig       `yaml:"gpio"`
	SampleMs   int              `yaml:"sample_ms"`
	Controller ControllerConfig `yaml:"controller"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	HTTPAddr   string           `yaml:"http_addr"`
	FeedAddr   string           `yaml:"feed_addr"`
	Console    ConsoleConfig    `yaml:"console"`
}

// GPIOConfig names the GPIO chip and pins.
type GPIOConfig struct {
	Chip      string `yaml:"chip"`
	SensorPin int    `yaml:"sensor_pin"`
	RelayPin  int    `yaml:"relay_pin"`
}

// ControllerConfig holds the thermostat defaults applied at startup.
type ControllerConfig struct {
	ThresholdC     int `yaml:"threshold_c"`
	MinRuntimeSecs int `yaml:"min_runtime_secs"`
	CooldownSecs   int `yaml:"cooldown_secs"`
}

// MQTTConfig holds the broker settings. An empty broker disables MQTT.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	HeartbeatMs int    `yaml:"heartbeat_ms"`
}

// ConsoleConfig holds the serial console settings. An empty device
// disables the console.
type ConsoleConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		GPIO: GPIOConfig{
			Chip:      "gpiochip0",
			SensorPin: 2,
			RelayPin:  3,
		},
		SampleMs: 1000,
		Controller: ControllerConfig{
			ThresholdC:     20,
			MinRuntimeSecs: 600,
			CooldownSecs:   600,
		},
		MQTT: MQTTConfig{
			HeartbeatMs: 900000, // 15 minutes
		},
		HTTPAddr: ":8080",
		FeedAddr: ":1234",
		Console: ConsoleConfig{
			Baud: 115200,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.GPIO.Chip == "" {
		return fmt.Errorf("gpio.chip must not be empty")
	}
	if c.GPIO.SensorPin < 0 || c.GPIO.RelayPin < 0 {
		return fmt.Errorf("gpio pins must be non-negative")
	}
	if c.GPIO.SensorPin == c.GPIO.RelayPin {
		return fmt.Errorf("sensor and relay pins must differ")
	}
	if c.SampleMs <= 0 {
		return fmt.Errorf("sample_ms must be positive, got %d", c.SampleMs)
	}
	if c.MQTT.HeartbeatMs < 0 {
		return fmt.Errorf("mqtt.heartbeat_ms must be non-negative, got %d", c.MQTT.HeartbeatMs)
	}
	if c.Controller.ThresholdC < -128 || c.Controller.ThresholdC > 127 {
		return fmt.Errorf("controller.threshold_c out of range: %d", c.Controller.ThresholdC)
	}
	if err := c.ControllerConfig().Validate(); err != nil {
		return err
	}
	if c.Console.Device != "" && c.Console.Baud <= 0 {
		return fmt.Errorf("console.baud must be positive, got %d", c.Console.Baud)
	}
	return nil
}

// SampleInterval returns the sampling period as a duration.
func (c Config) SampleInterval() time.Duration {
	return time.Duration(c.SampleMs) * time.Millisecond
}

// HeartbeatInterval returns the heartbeat period; zero means disabled.
func (c Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.MQTT.HeartbeatMs) * time.Millisecond
}

// ControllerConfig converts the startup thermostat settings.
func (c Config) ControllerConfig() control.Config {
	return control.Config{
		ThresholdTemperature: int8(c.Controller.ThresholdC),
		MinimumRuntime:       time.Duration(c.Controller.MinRuntimeSecs) * time.Second,
		CooldownTime:         time.Duration(c.Controller.CooldownSecs) * time.Second,
	}
}
