package cli

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/ngdevkit/emudbg/internal/debug/gdbserver"
	"github.com/ngdevkit/emudbg/internal/debug/host"
	emuerrors "github.com/ngdevkit/emudbg/internal/errors"
)

// Config represents the configuration of the debug server tools
type Config struct {
	Addr             string `json:"addr"`
	ValidateChecksum bool   `json:"validate_checksum"`
	MaxMemoryRead    int    `json:"max_memory_read"`
	Verbose          bool   `json:"verbose"`
	Debug            bool   `json:"debug"`

	// ROM image loaded into the reference target, and where it goes
	ROM      string `json:"rom"`
	LoadAddr uint32 `json:"load_addr"`

	// SliceBudget is how many instructions a continue runs before the
	// runtime polls the client for an interrupt request
	SliceBudget int `json:"slice_budget"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		Addr:          gdbserver.DefaultAddr,
		MaxMemoryRead: gdbserver.DefaultMaxMemoryRead,
		SliceBudget:   host.DefaultSliceBudget,
	}
}

// envMapping maps environment variables to config keys
var envMapping = map[string]string{
	"EMUDBG_ADDR":              "addr",
	"EMUDBG_VALIDATE_CHECKSUM": "validate_checksum",
	"EMUDBG_MAX_MEM_READ":      "max_memory_read",
	"EMUDBG_VERBOSE":           "verbose",
	"EMUDBG_DEBUG":             "debug",
	"EMUDBG_ROM":               "rom",
	"EMUDBG_SLICE_BUDGET":      "slice_budget",
}

// LoadConfig loads configuration from file on top of the defaults
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil // Default config if file doesn't exist
		}
		return nil, emuerrors.ConfigFile(configPath, "read", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, emuerrors.ConfigFile(configPath, "parse", err)
	}

	return config, nil
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return emuerrors.ConfigFile(configPath, "marshal", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return emuerrors.ConfigFile(configPath, "write", err)
	}

	return nil
}

// ApplyEnv overrides fields from EMUDBG_* variables. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for env, key := range envMapping {
		val, ok := lookup(env)
		if !ok {
			continue
		}
		if err := c.set(key, strings.TrimSpace(val)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) set(key, val string) error {
	switch key {
	case "addr":
		c.Addr = val
	case "rom":
		c.ROM = val
	case "validate_checksum", "verbose", "debug":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return emuerrors.InvalidConfig(key, val, "expected a boolean")
		}
		switch key {
		case "validate_checksum":
			c.ValidateChecksum = b
		case "verbose":
			c.Verbose = b
		default:
			c.Debug = b
		}
	case "max_memory_read", "slice_budget":
		n, err := strconv.Atoi(val)
		if err != nil {
			return emuerrors.InvalidConfig(key, val, "expected an integer")
		}
		if key == "max_memory_read" {
			c.MaxMemoryRead = n
		} else {
			c.SliceBudget = n
		}
	default:
		return emuerrors.InvalidConfig(key, val, "unknown key")
	}
	return nil
}

// Validate checks the configuration before it reaches the server
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return emuerrors.InvalidConfig("addr", c.Addr, err.Error())
	}
	if c.MaxMemoryRead < 1 || c.MaxMemoryRead > gdbserver.MaxMemoryReadLimit {
		return emuerrors.InvalidConfig("max_memory_read", c.MaxMemoryRead,
			fmt.Sprintf("must be between 1 and %d", gdbserver.MaxMemoryReadLimit))
	}
	if c.SliceBudget < 1 {
		return emuerrors.InvalidConfig("slice_budget", c.SliceBudget, "must be positive")
	}
	return nil
}

// SessionOptions converts the configuration into debug session options
func (c *Config) SessionOptions(logger gdbserver.Logger) gdbserver.Options {
	return gdbserver.Options{
		Addr:             c.Addr,
		ValidateChecksum: c.ValidateChecksum,
		MaxMemoryRead:    c.MaxMemoryRead,
		Logger:           logger,
	}
}
