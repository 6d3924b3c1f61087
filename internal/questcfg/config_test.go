package questcfg

import (
	"path/filepath"
	"strings"
	"testing"
)

const sampleTOML = `
title = "Learn Go Channels"
author = "repoquest-demo"
repo = "go-channels-quest"
read-only = ["go.mod", "go.sum"]

[[stages]]
label = "intro"
name = "Introduction"

[[stages]]
label = "buffered"
name = "Buffered Channels"
no-starter = true

[final]
message = "Nicely done"
`

func TestDecodeValid(t *testing.T) {
	cfg, err := Decode([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Title != "Learn Go Channels" {
		t.Errorf("Title = %q", cfg.Title)
	}
	if len(cfg.Stages) != 2 {
		t.Fatalf("Stages = %d, want 2", len(cfg.Stages))
	}
	if cfg.Stages[1].Label != "buffered" || !cfg.Stages[1].NoStarter {
		t.Errorf("Stages[1] = %+v", cfg.Stages[1])
	}
	if len(cfg.ReadOnly) != 2 {
		t.Errorf("ReadOnly = %v", cfg.ReadOnly)
	}
	if cfg.Final["message"] != "Nicely done" {
		t.Errorf("Final = %v", cfg.Final)
	}
}

func TestDecodeMissingRequiredFields(t *testing.T) {
	_, err := Decode([]byte(`title = "x"`))
	if err == nil {
		t.Fatal("expected error for missing author/repo/stages")
	}
}

func TestChaptersRejectsDuplicateLabels(t *testing.T) {
	cfg, err := Decode([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	cfg.Stages = append(cfg.Stages, cfg.Stages[0])
	if _, err := cfg.Chapters(); err == nil {
		t.Fatal("expected error for duplicate chapter labels")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	cfg, err := Decode([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	path := filepath.Join(t.TempDir(), "rqst.toml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Title != cfg.Title || loaded.Repo != cfg.Repo || len(loaded.Stages) != len(cfg.Stages) {
		t.Errorf("round trip mismatch: %+v vs %+v", loaded, cfg)
	}
}

func TestEncodeUsesKebabCaseKeys(t *testing.T) {
	cfg, err := Decode([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(out), "read-only") {
		t.Errorf("encoded TOML missing kebab-case key read-only: %s", out)
	}
	if !strings.Contains(string(out), "no-starter") {
		t.Errorf("encoded TOML missing kebab-case key no-starter: %s", out)
	}
}
