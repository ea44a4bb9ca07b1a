// Package config loads the player configuration from YAML and watches it
// for changes.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/e7canasta/gstplay"
)

const (
	defaultInstanceID   = "gstplay"
	defaultColorBalance = 50.0
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Config represents the complete player configuration
type Config struct {
	InstanceID           string             `yaml:"instance_id"`
	QuitOnStreamEnd      bool               `yaml:"quit_on_stream_end"`
	SoftwareColorBalance bool               `yaml:"software_color_balance"`
	ColorBalance         ColorBalanceConfig `yaml:"color_balance"`
	VideoSink            string             `yaml:"video_sink"` // playbin video-sink, empty for autovideosink
	AudioSink            string             `yaml:"audio_sink"` // playbin audio-sink, empty for autoaudiosink
	MQTT                 MQTTConfig         `yaml:"mqtt"`
	MetricsAddr          string             `yaml:"metrics_addr"` // e.g. ":9090", empty disables
}

// ColorBalanceConfig holds the defaults applied once playback starts, each
// in [0,100]. Unset channels default to 50.
type ColorBalanceConfig struct {
	Brightness *float64 `yaml:"brightness,omitempty"`
	Contrast   *float64 `yaml:"contrast,omitempty"`
	Hue        *float64 `yaml:"hue,omitempty"`
	Saturation *float64 `yaml:"saturation,omitempty"`
}

// MQTTConfig contains MQTT broker settings; an empty broker disables the
// control plane
type MQTTConfig struct {
	Broker string          `yaml:"broker"`
	Topics MQTTTopics      `yaml:"topics"`
	QoS    map[string]byte `yaml:"qos"`
}

// MQTTTopics contains topic names
type MQTTTopics struct {
	Control string `yaml:"control"`
	Status  string `yaml:"status"`
}

// Default returns a validated configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	if err := Validate(cfg); err != nil {
		panic(fmt.Sprintf("config: defaults invalid: %v", err))
	}
	return cfg
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration and fills defaults in place
func Validate(cfg *Config) error {
	if cfg.InstanceID == "" {
		cfg.InstanceID = defaultInstanceID
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	channels := map[string]**float64{
		"brightness": &cfg.ColorBalance.Brightness,
		"contrast":   &cfg.ColorBalance.Contrast,
		"hue":        &cfg.ColorBalance.Hue,
		"saturation": &cfg.ColorBalance.Saturation,
	}
	for name, field := range channels {
		if *field == nil {
			v := defaultColorBalance
			*field = &v
			continue
		}
		if v := **field; v < 0 || v > 100 {
			return fmt.Errorf("color_balance.%s must be in [0,100], got %v", name, v)
		}
	}

	if cfg.MQTT.Topics.Control == "" {
		cfg.MQTT.Topics.Control = fmt.Sprintf("gstplay/control/%s", cfg.InstanceID)
	}
	if cfg.MQTT.Topics.Status == "" {
		cfg.MQTT.Topics.Status = fmt.Sprintf("gstplay/status/%s", cfg.InstanceID)
	}
	if cfg.MQTT.QoS == nil {
		cfg.MQTT.QoS = map[string]byte{
			"control": 1,
			"status":  0,
		}
	}
	for name, qos := range cfg.MQTT.QoS {
		if qos > 2 {
			return fmt.Errorf("mqtt.qos.%s must be 0, 1 or 2, got %d", name, qos)
		}
	}

	return nil
}

// ColorBalanceDefault returns the configured default of a channel
func (c *Config) ColorBalanceDefault(ch gstplay.Channel) float64 {
	var v *float64
	switch ch {
	case gstplay.ChannelBrightness:
		v = c.ColorBalance.Brightness
	case gstplay.ChannelContrast:
		v = c.ColorBalance.Contrast
	case gstplay.ChannelHue:
		v = c.ColorBalance.Hue
	case gstplay.ChannelSaturation:
		v = c.ColorBalance.Saturation
	}
	if v == nil {
		return defaultColorBalance
	}
	return *v
}

// NeedsRebuild reports whether moving from old to new changes the pipeline
// description, which requires suspending and restarting playback
func NeedsRebuild(old, new *Config) bool {
	return old.VideoSink != new.VideoSink || old.AudioSink != new.AudioSink
}

// ColorBalanceChanged reports whether any color balance default differs
func ColorBalanceChanged(old, new *Config) bool {
	if old.SoftwareColorBalance != new.SoftwareColorBalance {
		return true
	}
	for _, ch := range gstplay.Channels {
		if old.ColorBalanceDefault(ch) != new.ColorBalanceDefault(ch) {
			return true
		}
	}
	return false
}
