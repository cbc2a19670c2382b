package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tracksmith/pkg/config"
	"tracksmith/pkg/model"
	"tracksmith/pkg/tracker"
)

func TestApplyOverrides(t *testing.T) {
	cfg := config.DefaultConfig()

	*sepDistance = 250
	*sepSeconds = 600
	*minPoints = 3
	*cleanupIval = 500
	defer func() { *sepDistance, *sepSeconds, *minPoints, *cleanupIval = 0, 0, 0, 0 }()

	applyOverrides(cfg)

	if float64(cfg.Assembler.SeparationDistance) != 250 {
		t.Errorf("SeparationDistance = %v, want 250", cfg.Assembler.SeparationDistance)
	}
	if time.Duration(cfg.Assembler.SeparationTime) != 10*time.Minute {
		t.Errorf("SeparationTime = %v, want 10m", time.Duration(cfg.Assembler.SeparationTime))
	}
	if cfg.Assembler.MinPoints != 3 || cfg.Assembler.CleanupInterval != 500 {
		t.Errorf("unexpected overrides: %+v", cfg.Assembler)
	}
}

func TestAssemblerConfigFromFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Assembler.MinPoints = 2

	acfg := assemblerConfig(cfg, model.TerrestrialDistance)
	if acfg.MinPoints != 2 {
		t.Errorf("MinPoints = %d, want 2", acfg.MinPoints)
	}
	if acfg.SeparationDistance != 100 {
		t.Errorf("SeparationDistance = %v, want 100", acfg.SeparationDistance)
	}
	if err := acfg.Validate(); err != nil {
		t.Errorf("config should validate: %v", err)
	}
}

func TestRunTerrestrialEndToEnd(t *testing.T) {
	tempDir := t.TempDir()

	// Eleven closely spaced points for one object, assembled into a single
	// trajectory and written as GeoJSON.
	var input strings.Builder
	base := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 11; i++ {
		fmt.Fprintf(&input, "bus-7,%s,%f,%f\n",
			base.Add(time.Duration(i)*10*time.Second).Format("2006-01-02 15:04:05"),
			13.4+float64(i)*0.0001, 52.5)
	}

	cfg := config.DefaultConfig()
	outPath := filepath.Join(tempDir, "out.geojson")
	*outputGeoJSON = outPath
	defer func() { *outputGeoJSON = "" }()

	err := runTerrestrial(context.Background(), cfg, strings.NewReader(input.String()), tracker.New())
	if err != nil {
		t.Fatalf("runTerrestrial failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	var fc struct {
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(data, &fc); err != nil {
		t.Fatalf("output is not valid GeoJSON: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Errorf("expected 1 feature, got %d", len(fc.Features))
	}
}
