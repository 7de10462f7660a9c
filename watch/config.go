package watch

import (
	"encoding/json"
	"os"
	"slices"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/sarchlab/mipscan/loader"
	"github.com/sarchlab/mipscan/resolve"
)

// Config holds the settings of a live watch.
type Config struct {
	// PollIntervalMs is the period between two reads of the status word.
	// Default: 30 ms.
	PollIntervalMs uint64 `json:"poll_interval_ms"`

	// RescanIntervalMs is the minimum time between two scans while the
	// fingerprint does not match. Default: 1000 ms.
	RescanIntervalMs uint64 `json:"rescan_interval_ms"`

	// IdleTimeoutMs is how long the watcher stays invalidated before it
	// reports itself idle. Default: 5000 ms.
	IdleTimeoutMs uint64 `json:"idle_timeout_ms"`

	// RAMSize is the number of bytes snapshotted from the RAM base.
	// Default: 4 MiB.
	RAMSize uint32 `json:"ram_size"`

	// Magic and MagicMask identify the first RAM word: the LUI K0, 0x8000
	// at the start of the exception vector copy. Defaults: 0x3C1A8000,
	// 0xFFFFF000.
	Magic     uint32 `json:"magic"`
	MagicMask uint32 `json:"magic_mask"`

	// MagicOffset is added to every mapping start before the magic check.
	// Some emulators keep a header in front of RAM. Default: 0.
	MagicOffset uint64 `json:"magic_offset"`

	// BaseHints are host addresses tried before walking the mappings.
	BaseHints []uint64 `json:"base_hints,omitempty"`

	// ByteOrder is the order RAM words are stored in by the host.
	// Default: "little".
	ByteOrder string `json:"byte_order"`

	// Strategy picks the address among stored values. Default: "below".
	Strategy string `json:"strategy"`
}

// DefaultConfig returns a Config with the default values.
func DefaultConfig() *Config {
	return &Config{
		PollIntervalMs:   30,
		RescanIntervalMs: 1000,
		IdleTimeoutMs:    5000,
		RAMSize:          0x400000,
		Magic:            0x3C1A8000,
		MagicMask:        0xFFFFF000,
		ByteOrder:        "little",
		Strategy:         "below",
	}
}

// LoadConfig loads a Config from a JSON file. Missing fields keep their
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read watch config file")
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse watch config")
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to serialize watch config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write watch config file")
	}

	return nil
}

// Validate checks that the values are usable.
func (c *Config) Validate() error {
	if c.PollIntervalMs == 0 {
		return errors.New("poll_interval_ms must be > 0")
	}
	if c.RescanIntervalMs < c.PollIntervalMs {
		return errors.New("rescan_interval_ms must be >= poll_interval_ms")
	}
	if c.RAMSize == 0 || c.RAMSize%4 != 0 {
		return errors.New("ram_size must be a positive multiple of 4")
	}
	if c.MagicMask == 0 {
		return errors.New("magic_mask must not be 0")
	}
	if c.Magic&^c.MagicMask != 0 {
		return errors.New("magic has bits outside magic_mask")
	}
	if _, err := loader.ParseByteOrder(c.ByteOrder); err != nil {
		return err
	}
	if _, err := resolve.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.BaseHints = slices.Clone(c.BaseHints)
	return &clone
}

// PollInterval returns PollIntervalMs as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// RescanInterval returns RescanIntervalMs as a duration.
func (c *Config) RescanInterval() time.Duration {
	return time.Duration(c.RescanIntervalMs) * time.Millisecond
}

// IdleTimeout returns IdleTimeoutMs as a duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMs) * time.Millisecond
}
