// Package config loads the controller configuration from a TOML file. The
// configuration is read once at startup and treated as immutable afterwards.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ApplicationPortPath string `toml:"application_port_path"`
	PumpPortPath        string `toml:"pump_port_path"`
	RouterPortPath      string `toml:"router_port_path"`
	ConstantCleaning    bool   `toml:"constant_cleaning"`
	// TubeHolderCoordinates maps a slot ID to "x:y:z" in device units.
	TubeHolderCoordinates map[string]string `toml:"tube-holder-coordinates"`
}

// Default is the baked-in configuration, pointing at the pseudo-terminal
// pairs created by the ptyenv harness.
func Default() *Config {
	return &Config{
		ApplicationPortPath: "/tmp/app1",
		PumpPortPath:        "/tmp/pump1",
		RouterPortPath:      "/tmp/router1",
		ConstantCleaning:    true,
		TubeHolderCoordinates: map[string]string{
			"1": "10:10:-20",
			"2": "40:10:-20",
			"3": "70:10:-20",
		},
	}
}

// Load reads the configuration from path. If the file does not exist, the
// default configuration is written there and returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		return cfg, writeDefault(path, cfg)
	}
	if err != nil {
		return nil, err
	}
	cfg := new(Config)
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func writeDefault(path string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// SlotCoordinates resolves a slot ID to gantry coordinates. The stored value
// must split on ':' into exactly three signed integers.
func (c *Config) SlotCoordinates(slot int) (x, y, z int, err error) {
	key := strconv.Itoa(slot)
	v, ok := c.TubeHolderCoordinates[key]
	if !ok {
		return 0, 0, 0, fmt.Errorf("no coordinates for slot %d", slot)
	}
	parts := strings.Split(v, ":")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid coordinates %q for slot %d", v, slot)
	}
	coords := make([]int, 3)
	for i, p := range parts {
		coords[i], err = strconv.Atoi(p)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid coordinates %q for slot %d", v, slot)
		}
	}
	return coords[0], coords[1], coords[2], nil
}
