package mdbxkv

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the file form of the environment settings.
//
//	map_size: 1073741824
//	max_readers: 126
//	max_dbs: 8
//	flags: [nosubdir, safenosync]
//	mode: "0644"
type Config struct {
	MapSize             int64         `yaml:"map_size"`
	MaxReaders          uint          `yaml:"max_readers"`
	MaxDBs              uint          `yaml:"max_dbs"`
	Flags               []string      `yaml:"flags"`
	Mode                string        `yaml:"mode"`
	Label               string        `yaml:"label"`
	BorrowCheck         bool          `yaml:"borrow_check"`
	SlowWriterThreshold time.Duration `yaml:"slow_writer_threshold"`
}

var configFlags = map[string]EnvFlags{
	"readonly":      ReadOnly,
	"nosubdir":      NoSubdir,
	"writemap":      WriteMap,
	"safenosync":    SafeNoSync,
	"nometasync":    NoMetaSync,
	"utterlynosync": UtterlyNoSync,
	"noreadahead":   NoReadAhead,
	"nomeminit":     NoMemInit,
	"lifo":          LifoReclaim,
	"nolock":        NoLock,
	"exclusive":     NoLock,
	"notls":         0, // always on
}

// DefaultConfig returns the configuration matching Configure().
func DefaultConfig() *Config {
	return &Config{
		MapSize:    DefaultMapSize,
		MaxReaders: DefaultMaxReaders,
		Mode:       "0644",
	}
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML over the defaults. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks flag names and the file mode.
func (c *Config) Validate() error {
	if c.MapSize < 0 {
		return fmt.Errorf("map_size must not be negative")
	}
	if _, err := c.EnvFlags(); err != nil {
		return err
	}
	if _, err := c.FileMode(); err != nil {
		return err
	}
	return nil
}

// EnvFlags resolves the flag names.
func (c *Config) EnvFlags() (EnvFlags, error) {
	var flags EnvFlags
	for _, name := range c.Flags {
		f, ok := configFlags[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("unknown environment flag %q", name)
		}
		flags |= f
	}
	return flags, nil
}

// FileMode parses Mode as an octal permission string.
func (c *Config) FileMode() (os.FileMode, error) {
	if c.Mode == "" {
		return 0o644, nil
	}
	m, err := strconv.ParseUint(c.Mode, 8, 32)
	if err != nil || m > 0o777 {
		return 0, fmt.Errorf("invalid mode %q", c.Mode)
	}
	return os.FileMode(m), nil
}

// Builder converts the configuration into an EnvBuilder.
func (c *Config) Builder() (*EnvBuilder, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	flags, _ := c.EnvFlags()
	b := Configure().
		SetFlags(flags).
		SetBorrowCheck(c.BorrowCheck).
		SetSlowWriterThreshold(c.SlowWriterThreshold)
	if c.MapSize > 0 {
		b.SetMapSize(c.MapSize)
	}
	if c.MaxReaders > 0 {
		b.SetMaxReaders(c.MaxReaders)
	}
	if c.MaxDBs > 0 {
		b.SetMaxDBs(c.MaxDBs)
	}
	if c.Label != "" {
		b.SetLabel(c.Label)
	}
	return b, nil
}

// Open opens the environment at path with this configuration.
func (c *Config) Open(path string, log Logger) (*Env, error) {
	b, err := c.Builder()
	if err != nil {
		return nil, err
	}
	mode, _ := c.FileMode()
	return b.SetLogger(log).Open(path, mode)
}
