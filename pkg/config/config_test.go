package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default() should validate: %v", err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "order: 4\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Order != 4 {
		t.Errorf("Order = %d, want 4", cfg.Order)
	}
	if cfg.BlockRecords != 8192 {
		t.Errorf("BlockRecords default = %d, want 8192", cfg.BlockRecords)
	}
	if cfg.BufferBlocks != 2 {
		t.Errorf("BufferBlocks default = %d, want 2", cfg.BufferBlocks)
	}
}

func TestLoadFullConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "order: 2\nblock_records: 16\nbuffer_blocks: 4\nspill_dir: "+dir+"\nlog_level: debug\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BlockRecords != 16 || cfg.BufferBlocks != 4 || cfg.SpillDir != dir || cfg.LogLevel != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero order", Config{Order: 0, BlockRecords: 1, BufferBlocks: 1}},
		{"order too high", Config{Order: 9, BlockRecords: 1, BufferBlocks: 1}},
		{"zero block records", Config{Order: 3, BlockRecords: 0, BufferBlocks: 1}},
		{"zero buffer blocks", Config{Order: 3, BlockRecords: 1, BufferBlocks: 0}},
		{"bad log level", Config{Order: 3, BlockRecords: 1, BufferBlocks: 1, LogLevel: "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Errorf("Validate(%+v) should fail", tt.cfg)
			}
		})
	}
}

func TestValidateSpillDir(t *testing.T) {
	cfg := Default()
	cfg.SpillDir = filepath.Join(t.TempDir(), "missing")
	if err := cfg.Validate(); err == nil {
		t.Error("missing spill_dir should fail validation")
	}

	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg.SpillDir = file
	if err := cfg.Validate(); err == nil {
		t.Error("file spill_dir should fail validation")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "order: [not an int\n")
	if _, err := Load(path); err == nil {
		t.Error("malformed YAML should fail")
	}
}
