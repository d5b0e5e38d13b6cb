package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "backend: sim\nstrategy: stream\ngroup_size: 128\nelements_per_worker: 4\nlog_format: json\nserver_address: 0.0.0.0:9000\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := loadConfigFile(path)
	if err != nil {
		t.Fatalf("loadConfigFile returned error: %v", err)
	}
	if cfg.Backend != "sim" || cfg.Strategy != "stream" {
		t.Fatalf("unexpected engine config: %+v", cfg)
	}
	if cfg.GroupSize == nil || *cfg.GroupSize != 128 {
		t.Fatalf("unexpected group_size: %v", cfg.GroupSize)
	}
	if cfg.ElementsPerWorker == nil || *cfg.ElementsPerWorker != 4 {
		t.Fatalf("unexpected elements_per_worker: %v", cfg.ElementsPerWorker)
	}
	if cfg.ResidentGroups != nil {
		t.Fatalf("resident_groups should be unset")
	}
	if cfg.LogFormat != "json" || cfg.ServerAddress != "0.0.0.0:9000" {
		t.Fatalf("unexpected output/server config: %+v", cfg)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	if cfg := LoadConfig(); cfg != (Config{}) {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestEngineConfigValidates(t *testing.T) {
	saved := []any{strategyName, groupSize, elementsPerWorker}
	t.Cleanup(func() {
		strategyName = saved[0].(string)
		groupSize = saved[1].(int64)
		elementsPerWorker = saved[2].(int64)
	})

	strategyName, groupSize, elementsPerWorker = "stream", 128, 1
	cfg, err := engineConfig()
	if err != nil {
		t.Fatalf("engineConfig returned error: %v", err)
	}
	if cfg.Launch.BlockCapacity() != 128 || cfg.Strategy.String() != "stream" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	groupSize, elementsPerWorker = 1, 1
	if _, err := engineConfig(); err == nil {
		t.Fatalf("expected error for a one-element block")
	}
	strategyName, groupSize = "sideways", 64
	if _, err := engineConfig(); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}
