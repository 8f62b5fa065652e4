package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/barnettlynn/spooltag/pkg/keys"
)

func TestLoadValidConfigAndResolveRelativePaths(t *testing.T) {
	tmp := t.TempDir()
	masterPath := filepath.Join(tmp, "master.hex")
	if err := os.WriteFile(masterPath, []byte("00112233445566778899AABBCCDDEEFF\n"), 0o644); err != nil {
		t.Fatalf("write master key: %v", err)
	}

	cfgPath := filepath.Join(tmp, "config.yaml")
	cfgYAML := `
runtime:
  reader_index: 1
storage:
  dump_dir: "dumps"
keys:
  master_key_hex_file: "master.hex"
  info: "RFID-B"
`
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Storage.DumpDir != filepath.Join(tmp, "dumps") {
		t.Fatalf("expected resolved dump dir, got %q", cfg.Storage.DumpDir)
	}
	if cfg.Keys.MasterKeyHexFile != masterPath {
		t.Fatalf("expected resolved master key path %q, got %q", masterPath, cfg.Keys.MasterKeyHexFile)
	}
	if cfg.ReaderSelector() != "1" {
		t.Fatalf("expected reader selector 1, got %q", cfg.ReaderSelector())
	}

	secret, err := cfg.Secret()
	if err != nil {
		t.Fatalf("Secret returned error: %v", err)
	}
	if secret.Master[0] != 0x00 || secret.Master[15] != 0xFF || string(secret.Info) != "RFID-B" {
		t.Fatalf("overrides not applied: %+v", secret)
	}
}

func TestLoadMinimalConfigKeepsBuiltInSecret(t *testing.T) {
	cfgPath := writeConfig(t, `
runtime:
  reader_index: 0
storage:
  dump_dir: "/var/lib/spooltag"
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Storage.DumpDir != "/var/lib/spooltag" {
		t.Fatalf("absolute dump dir changed: %q", cfg.Storage.DumpDir)
	}
	secret, err := cfg.Secret()
	if err != nil {
		t.Fatalf("Secret returned error: %v", err)
	}
	def := keys.DefaultSecret()
	if secret.Master != def.Master || string(secret.Info) != string(def.Info) {
		t.Fatalf("expected built-in secret")
	}
}

func TestLoadFailsWithoutReaderIndex(t *testing.T) {
	cfgPath := writeConfig(t, `
storage:
  dump_dir: "dumps"
`)
	_, err := Load(cfgPath)
	if err == nil || !strings.Contains(err.Error(), "config.runtime.reader_index is required") {
		t.Fatalf("expected missing reader index error, got %v", err)
	}
}

func TestLoadFailsOnNegativeReaderIndex(t *testing.T) {
	cfgPath := writeConfig(t, `
runtime:
  reader_index: -1
storage:
  dump_dir: "dumps"
`)
	_, err := Load(cfgPath)
	if err == nil || !strings.Contains(err.Error(), "must be >= 0") {
		t.Fatalf("expected negative reader index error, got %v", err)
	}
}

func TestLoadFailsWithoutDumpDir(t *testing.T) {
	cfgPath := writeConfig(t, `
runtime:
  reader_index: 0
`)
	_, err := Load(cfgPath)
	if err == nil || !strings.Contains(err.Error(), "config.storage.dump_dir is required") {
		t.Fatalf("expected missing dump dir error, got %v", err)
	}
}

func TestLoadFailsOnMissingMasterKeyFile(t *testing.T) {
	cfgPath := writeConfig(t, `
runtime:
  reader_index: 0
storage:
  dump_dir: "dumps"
keys:
  master_key_hex_file: "missing.hex"
`)
	_, err := Load(cfgPath)
	if err == nil || !strings.Contains(err.Error(), "config.keys.master_key_hex_file") {
		t.Fatalf("expected missing master key file error, got %v", err)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	cfgPath := writeConfig(t, `
runtime:
  reader_index: 0
  force_plain: true
storage:
  dump_dir: "dumps"
`)
	_, err := Load(cfgPath)
	if err == nil || !strings.Contains(err.Error(), "parse config yaml") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}
