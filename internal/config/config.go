// Package config loads and validates the TOML configuration driving a
// cidrkit run: where the input networks come from, which operation to apply,
// and how to write the result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Operation kinds accepted in [operation].
const (
	OpSummarize = "summarize"
	OpSubnet    = "subnet"
	OpSplit     = "split"
	OpSupernet  = "supernet"
	OpInfo      = "info"
)

// Output formats accepted in [output].
const (
	FormatText    = "text"
	FormatMMDB    = "mmdb"
	FormatParquet = "parquet"
)

// Config is the root of the TOML document.
type Config struct {
	Input     Input     `toml:"input"`
	Operation Operation `toml:"operation"`
	Output    Output    `toml:"output"`
}

// Input selects the source of networks: an inline list, or every network
// recorded in an MMDB file.
type Input struct {
	Networks []string `toml:"networks"`
	MMDB     string   `toml:"mmdb"`
}

// Operation names the transformation applied to the input networks.
type Operation struct {
	Kind string `toml:"kind"`

	// Count is the number of blocks for a split.
	Count int `toml:"count"`

	// Prefix is the target prefix length for subnet and supernet.
	Prefix int `toml:"prefix"`
}

// Output selects the destination and format of the result.
type Output struct {
	Format string `toml:"format"`
	Path   string `toml:"path"`
	MMDB   MMDB   `toml:"mmdb"`
}

// MMDB holds the metadata written into an MMDB export.
type MMDB struct {
	DatabaseType string            `toml:"database_type"`
	Description  map[string]string `toml:"description"`
	RecordSize   *int              `toml:"record_size"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file '%s': %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file '%s': %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Operation.Kind == "" {
		c.Operation.Kind = OpInfo
	}
	if c.Output.Format == "" {
		c.Output.Format = FormatText
	}
	if c.Output.MMDB.DatabaseType == "" {
		c.Output.MMDB.DatabaseType = "cidrkit-Networks"
	}
	if c.Output.MMDB.RecordSize == nil {
		size := 28
		c.Output.MMDB.RecordSize = &size
	}
}

// Validate checks the decoded configuration for internal consistency.
func (c *Config) Validate() error {
	if len(c.Input.Networks) == 0 && c.Input.MMDB == "" {
		return errors.New("input requires either 'networks' or 'mmdb'")
	}
	if len(c.Input.Networks) > 0 && c.Input.MMDB != "" {
		return errors.New("input 'networks' and 'mmdb' are mutually exclusive")
	}

	switch c.Operation.Kind {
	case OpSummarize, OpInfo:
	case OpSplit:
		if c.Operation.Count < 1 {
			return fmt.Errorf("operation 'split' needs count >= 1, got %d", c.Operation.Count)
		}
	case OpSubnet, OpSupernet:
		if c.Operation.Prefix < 0 || c.Operation.Prefix > 128 {
			return fmt.Errorf("operation '%s' needs prefix in 0..128, got %d", c.Operation.Kind, c.Operation.Prefix)
		}
	default:
		return fmt.Errorf("unknown operation kind '%s'", c.Operation.Kind)
	}

	switch c.Output.Format {
	case FormatText:
	case FormatMMDB, FormatParquet:
		if c.Output.Path == "" {
			return fmt.Errorf("output format '%s' requires a path", c.Output.Format)
		}
	default:
		return fmt.Errorf("unknown output format '%s'", c.Output.Format)
	}

	if rs := *c.Output.MMDB.RecordSize; rs != 24 && rs != 28 && rs != 32 {
		return fmt.Errorf("mmdb record_size must be 24, 28 or 32, got %d", rs)
	}

	return nil
}
