package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Rule != "Aether" {
		t.Errorf("expected rule Aether, got %s", cfg.Rule)
	}
	if cfg.Dim < 1 || cfg.Dim > 4 {
		t.Errorf("dimension %d out of range", cfg.Dim)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte("rule: siv\ndim: 3\ninitial: 640\nbackground: 1\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.Dim != 3 || cfg.Initial != 640 || cfg.Background != 1 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.LogEvery != DefaultLogEvery {
		t.Errorf("expected default log_every to survive the overlay, got %d", cfg.LogEvery)
	}

	empty, err := Parse(nil)
	if err != nil {
		t.Fatalf("empty document should yield defaults: %v", err)
	}
	if empty.Rule != DefaultRule {
		t.Errorf("expected default rule, got %s", empty.Rule)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "rule: Aether\ncolour: red\n"},
		{"dimension", "dim: 5\n"},
		{"even side", "enclosed_side: 4\n"},
		{"negative side", "enclosed_side: -3\n"},
		{"unknown rule", "rule: Conway\n"},
		{"background on aether", "background: 2\n"},
		{"unbounded", "until_stable: false\nsteps: 0\n"},
		{"backing", "paging:\n  backing: tape\n"},
		{"budget", "paging:\n  backing: file\n  budget: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := GetPreset("SpreadIntegerValue", "deep")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *loaded != *cfg {
		t.Errorf("expected %+v, got %+v", cfg, loaded)
	}
}

func TestLoadOntoKeepsBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("initial: 500\nsteps: 9\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := GetPreset("SpreadIntegerValue", "background")
	if err := LoadOnto(path, cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Rule != "SpreadIntegerValue" || cfg.Background != 1 {
		t.Errorf("preset fields lost: %+v", cfg)
	}
	if cfg.Initial != 500 || cfg.Steps != 9 {
		t.Errorf("file fields not applied: %+v", cfg)
	}

	// unvalidated until the caller finishes layering
	bad := DefaultConfig()
	if err := Overlay(bad, []byte("background: 4\n")); err != nil {
		t.Fatalf("overlay should not validate: %v", err)
	}
	if err := bad.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
	if err := Overlay(DefaultConfig(), []byte("colour: red\n")); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for unknown key, got %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("SpreadIntegerValue", "small")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Initial != 32 {
		t.Errorf("expected initial 32, got %d", cfg.Initial)
	}
	cfg.Initial = 1
	if GetPreset("SpreadIntegerValue", "small").Initial != 32 {
		t.Error("preset was modified through a returned copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("Aether", "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset("nonexistent", "line"); cfg != nil {
		t.Error("expected nil for nonexistent rule")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("Aether")
	if len(presets) != 4 || presets[0] != "cube" {
		t.Errorf("expected sorted Aether presets, got %v", presets)
	}
	if presets := ListPresets("nonexistent"); presets != nil {
		t.Error("expected nil for nonexistent rule")
	}
}

func TestPresetsBuild(t *testing.T) {
	for rule, presets := range Presets {
		for name := range presets {
			cfg := GetPreset(rule, name)
			if err := cfg.Validate(); err != nil {
				t.Errorf("%s/%s: %v", rule, name, err)
				continue
			}
			a, err := cfg.Build()
			if err != nil {
				t.Errorf("%s/%s: build failed: %v", rule, name, err)
				continue
			}
			if a.Name() != rule {
				t.Errorf("%s/%s: built %s", rule, name, a.Name())
			}
		}
	}
}
