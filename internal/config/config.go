// drempelbox
// Copyright (c) 2025 The Drempelbox Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of drempelbox.
//
// drempelbox is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// drempelbox is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with drempelbox; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package config loads the appliance configuration
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding the file
const (
	EnvBindAddress    = "BIND_ADDRESS"
	EnvCacheDirectory = "CACHE_DIRECTORY"
)

// Reader transports
const (
	TransportSPI  = "spi"
	TransportI2C  = "i2c"
	TransportUART = "uart"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete appliance configuration
type Config struct {
	Player         Player  `yaml:"player"`
	Pins           Pins    `yaml:"pins"`
	Reader         Reader  `yaml:"reader"`
	MDNS           MDNS    `yaml:"mdns"`
	BindAddress    string  `yaml:"bind_address"`
	CacheDirectory string  `yaml:"cache_directory"`
	Polling        Polling `yaml:"polling"`
}

// Reader selects and configures the MFRC522 bus
type Reader struct {
	// Transport is one of spi, i2c or uart
	Transport string `yaml:"transport"`
	// Device is the bus or serial port name, empty picks the first bus
	Device string `yaml:"device"`
	// ResetPin drives NRSTPD on SPI setups
	ResetPin string `yaml:"reset_pin,omitempty"`
	// Address is the I2C address
	Address uint16 `yaml:"address"`
	// Timeout bounds a single bus operation
	Timeout time.Duration `yaml:"timeout"`
	// MaxRetries is the number of attempts for retryable bus errors
	MaxRetries int `yaml:"max_retries"`
}

// Polling configures the token session
type Polling struct {
	Interval   time.Duration `yaml:"interval"`
	BufferSize int           `yaml:"buffer_size"`
}

// Pins names the GPIO lines. An empty name disables the feature.
type Pins struct {
	AmpShutdown string `yaml:"amp_shutdown"`
	AmpPower    string `yaml:"amp_power,omitempty"`
	LED         string `yaml:"led"`
	VolumeUp    string `yaml:"volume_up"`
	VolumeDown  string `yaml:"volume_down"`
	Shutdown    string `yaml:"shutdown"`
}

// Player configures the playback backends and mixer
type Player struct {
	// FileCommand plays a local file, {} is replaced by the path
	FileCommand []string `yaml:"file_command"`
	// StreamCommand plays a streaming URI, {} is replaced by the URI
	StreamCommand []string `yaml:"stream_command"`
	// StreamStopCommand is run after the stream process is stopped
	StreamStopCommand []string `yaml:"stream_stop_command,omitempty"`
	// FileRoot resolves relative file URLs
	FileRoot string `yaml:"file_root,omitempty"`
	// MixerControl is the ALSA simple mixer control
	MixerControl string `yaml:"mixer_control"`
	// Volume is applied at startup
	Volume float64 `yaml:"volume"`
	// VolumeStep is the change of one volume up or down
	VolumeStep float64 `yaml:"volume_step"`
}

// MDNS configures service advertisement
type MDNS struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		BindAddress:    "0.0.0.0:3000",
		CacheDirectory: "/var/cache/drempelbox",
		Reader: Reader{
			Transport:  TransportSPI,
			Device:     "/dev/spidev0.0",
			Address:    0x28,
			Timeout:    50 * time.Millisecond,
			MaxRetries: 3,
		},
		Polling: Polling{
			Interval:   500 * time.Millisecond,
			BufferSize: 16,
		},
		Pins: Pins{
			AmpShutdown: "GPIO21",
			LED:         "GPIO12",
			VolumeUp:    "GPIO27",
			VolumeDown:  "GPIO17",
			Shutdown:    "GPIO5",
		},
		Player: Player{
			FileCommand:   []string{"mpv", "--no-video", "--really-quiet", "{}"},
			StreamCommand: []string{"spt", "play", "--uri", "{}"},
			MixerControl:  "Master",
			Volume:        0.8,
			VolumeStep:    0.05,
		},
		MDNS: MDNS{
			Enabled: true,
			Name:    "drempelbox",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config: %w", err)
		}
		defer f.Close() //nolint:errcheck

		if err := cfg.Decode(f); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode merges YAML from r into c. Unknown keys are rejected.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

// Encode renders c as YAML
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// ApplyEnv overrides fields from the environment
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvBindAddress); ok && v != "" {
		c.BindAddress = v
	}
	if v, ok := lookup(EnvCacheDirectory); ok && v != "" {
		c.CacheDirectory = v
	}
}

// Validate reports every invalid field
func (c *Config) Validate() error {
	var result *multierror.Error

	fail := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if _, _, err := net.SplitHostPort(c.BindAddress); err != nil {
		fail("bind_address %q: %v", c.BindAddress, err)
	}

	switch c.Reader.Transport {
	case TransportSPI, TransportUART:
	case TransportI2C:
		if c.Reader.Address == 0 || c.Reader.Address > 0x7F {
			fail("reader.address %#x is not a 7-bit I2C address", c.Reader.Address)
		}
	default:
		fail("reader.transport %q is not one of spi, i2c, uart", c.Reader.Transport)
	}
	if c.Reader.Transport == TransportUART && c.Reader.Device == "" {
		fail("reader.device is required for uart")
	}
	if c.Reader.Timeout < 0 {
		fail("reader.timeout must not be negative")
	}
	if c.Reader.MaxRetries < 0 {
		fail("reader.max_retries must not be negative")
	}

	if c.Polling.Interval <= 0 {
		fail("polling.interval must be positive")
	}
	if c.Polling.BufferSize <= 0 {
		fail("polling.buffer_size must be positive")
	}

	if len(c.Player.FileCommand) == 0 {
		fail("player.file_command is required")
	}
	if len(c.Player.StreamCommand) == 0 {
		fail("player.stream_command is required")
	}
	if c.Player.Volume < 0 || c.Player.Volume > 1 {
		fail("player.volume %v is outside [0, 1]", c.Player.Volume)
	}
	if c.Player.VolumeStep <= 0 || c.Player.VolumeStep > 1 {
		fail("player.volume_step %v is outside (0, 1]", c.Player.VolumeStep)
	}

	if c.MDNS.Enabled && c.MDNS.Name == "" {
		fail("mdns.name is required when mdns is enabled")
	}

	return result.ErrorOrNil()
}
