package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"dropsland/crypto"
)

type Config struct {
	RPCAddress      string `toml:"RPCAddress"`
	MetricsAddress  string `toml:"MetricsAddress"`
	DataDir         string `toml:"DataDir"`
	NetworkName     string `toml:"NetworkName"`
	Env             string `toml:"Env"`
	RewardAuthority string `toml:"RewardAuthority"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for structural problems before the
// daemon starts mutating state with it.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("RPCAddress must not be empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DataDir must not be empty")
	}
	if authority := strings.TrimSpace(c.RewardAuthority); authority != "" {
		addr, err := crypto.DecodeAddress(authority)
		if err != nil {
			return fmt.Errorf("RewardAuthority is not a valid address: %w", err)
		}
		if addr.Prefix() != crypto.DropPrefix {
			return fmt.Errorf("RewardAuthority must use the %q prefix", crypto.DropPrefix)
		}
	}
	return nil
}

// RewardAuthorityBytes decodes the configured reward authority into its raw
// 20-byte form. Returns false when no authority is configured.
func (c *Config) RewardAuthorityBytes() ([20]byte, bool, error) {
	var out [20]byte
	trimmed := strings.TrimSpace(c.RewardAuthority)
	if trimmed == "" {
		return out, false, nil
	}
	addr, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return out, false, err
	}
	copy(out[:], addr.Bytes())
	return out, true, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:     "0.0.0.0:8645",
		MetricsAddress: "0.0.0.0:9095",
		DataDir:        "./dropsland-data",
		NetworkName:    "dropsland-local",
		Env:            "dev",
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
