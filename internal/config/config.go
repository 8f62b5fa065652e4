package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/barnettlynn/spooltag/pkg/keys"
)

const FileName = "config.yaml"

type Config struct {
	Runtime RuntimeConfig `yaml:"runtime"`
	Storage StorageConfig `yaml:"storage"`
	Keys    KeysConfig    `yaml:"keys"`
}

type RuntimeConfig struct {
	ReaderIndex *int `yaml:"reader_index"`
}

type StorageConfig struct {
	DumpDir string `yaml:"dump_dir"`
}

// KeysConfig overrides the built-in key derivation secret. Both fields are optional.
type KeysConfig struct {
	MasterKeyHexFile string `yaml:"master_key_hex_file,omitempty"`
	Info             string `yaml:"info,omitempty"`
}

func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	cfg.resolvePaths(path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Runtime.ReaderIndex == nil {
		return fmt.Errorf("config.runtime.reader_index is required")
	}
	if *c.Runtime.ReaderIndex < 0 {
		return fmt.Errorf("config.runtime.reader_index must be >= 0")
	}

	if strings.TrimSpace(c.Storage.DumpDir) == "" {
		return fmt.Errorf("config.storage.dump_dir is required")
	}
	if info, err := os.Stat(c.Storage.DumpDir); err == nil && !info.IsDir() {
		return fmt.Errorf("config.storage.dump_dir must point to a directory, got file")
	}

	// master_key_hex_file is optional
	if strings.TrimSpace(c.Keys.MasterKeyHexFile) != "" {
		if err := validateReadableFile(c.Keys.MasterKeyHexFile, "config.keys.master_key_hex_file"); err != nil {
			return err
		}
	}

	return nil
}

// Secret returns the key derivation secret with the configured overrides applied.
func (c *Config) Secret() (keys.Secret, error) {
	return keys.LoadSecret(c.Keys.MasterKeyHexFile, c.Keys.Info)
}

// ReaderSelector returns the reader index as accepted by mifare.OpenContext.
func (c *Config) ReaderSelector() string {
	return fmt.Sprint(*c.Runtime.ReaderIndex)
}

func (c *Config) resolvePaths(configPath string) {
	configDir := filepath.Dir(configPath)
	c.Storage.DumpDir = resolvePath(configDir, c.Storage.DumpDir)
	c.Keys.MasterKeyHexFile = resolvePath(configDir, c.Keys.MasterKeyHexFile)
}

func resolvePath(baseDir, path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Clean(filepath.Join(baseDir, trimmed))
}

func validateReadableFile(path string, field string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s must point to a file, got directory", field)
	}
	return nil
}

// DefaultPath looks for config.yaml next to the executable, then in the
// working directory.
func DefaultPath() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", err
	}
	exeConfigPath := filepath.Join(filepath.Dir(exePath), FileName)
	if fileExists(exeConfigPath) {
		return exeConfigPath, nil
	}

	// Fallback for `go run`, where the executable is placed in a temp directory.
	cwd, err := os.Getwd()
	if err != nil {
		return exeConfigPath, nil
	}
	cwdConfigPath := filepath.Join(cwd, FileName)
	if fileExists(cwdConfigPath) {
		return cwdConfigPath, nil
	}
	return exeConfigPath, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
