// Command portals detects heavily-trafficked cells and origin/destination
// flows in assembled trajectories, either straight from a point file or from
// a stored run.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"tracksmith/pkg/assembler"
	"tracksmith/pkg/config"
	"tracksmith/pkg/db"
	"tracksmith/pkg/model"
	"tracksmith/pkg/portal"
	"tracksmith/pkg/reader"
	"tracksmith/pkg/store"
)

var (
	configPath = flag.String("config", "configs/tracksmith.yaml", "Path to config file")
	inputPath  = flag.String("input", "", "Assemble trajectories from this point file")
	runID      = flag.String("run", "", "Load trajectories of this stored run instead")
	zonesPath  = flag.String("zones", "", "Optional GeoJSON zones file for portal naming")
	outputPath = flag.String("output", "", "Write the JSON report here instead of stdout")

	baseRes    = flag.Int("base-resolution", 0, "Coarse H3 resolution (overrides config)")
	maxRes     = flag.Int("max-resolution", 0, "Refinement depth limit (overrides config)")
	minObjects = flag.Int("min-objects", 0, "Distinct objects for a cell to qualify (overrides config)")
)

// Report is the JSON document this tool emits.
type Report struct {
	Trajectories int             `json:"trajectories"`
	Portals      []portal.Portal `json:"portals"`
	ODPairs      []portal.ODPair `json:"od_pairs"`
}

func main() {
	flag.Parse()

	if (*inputPath == "") == (*runID == "") {
		flag.Usage()
		fmt.Fprintln(os.Stderr, "Exactly one of -input or -run is required")
		os.Exit(2)
	}

	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "portals: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	appCfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	trajs, err := loadTrajectories(ctx, appCfg)
	if err != nil {
		return err
	}

	det, err := portal.NewDetector(detectorConfig(appCfg))
	if err != nil {
		return err
	}
	for _, t := range trajs {
		if err := det.Add(t); err != nil {
			return err
		}
	}

	portals, err := det.Portals()
	if err != nil {
		return err
	}

	if *zonesPath != "" {
		zones, err := portal.LoadZones(*zonesPath)
		if err != nil {
			return err
		}
		zones.Annotate(portals)
	}

	report := Report{
		Trajectories: len(trajs),
		Portals:      portals,
		ODPairs:      det.ODPairs(),
	}
	return writeReport(report)
}

func detectorConfig(cfg *config.Config) portal.Config {
	pcfg := portal.DefaultConfig()
	if cfg.Portal.BaseResolution > 0 {
		pcfg.BaseResolution = cfg.Portal.BaseResolution
	}
	if cfg.Portal.MaxResolution > 0 {
		pcfg.MaxResolution = cfg.Portal.MaxResolution
	}
	if cfg.Portal.MinObjects > 0 {
		pcfg.MinObjects = cfg.Portal.MinObjects
	}
	if *baseRes > 0 {
		pcfg.BaseResolution = *baseRes
	}
	if *maxRes > 0 {
		pcfg.MaxResolution = *maxRes
	}
	if *minObjects > 0 {
		pcfg.MinObjects = *minObjects
	}
	return pcfg
}

func loadTrajectories(ctx context.Context, cfg *config.Config) ([]*model.Trajectory[model.TerrestrialPoint], error) {
	if *runID != "" {
		return loadStored(ctx, cfg, *runID)
	}
	return assembleFile(cfg, *inputPath)
}

func loadStored(ctx context.Context, cfg *config.Config, id string) ([]*model.Trajectory[model.TerrestrialPoint], error) {
	dbConn, err := db.Init(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	st := store.NewSQLiteStore(dbConn)
	defer st.Close()

	list, err := st.ListTrajectories(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("run %s has no trajectories", id)
	}

	trajs := make([]*model.Trajectory[model.TerrestrialPoint], 0, len(list))
	for _, ts := range list {
		t, err := st.GetTrajectory(ctx, ts.ID)
		if err != nil {
			return nil, err
		}
		trajs = append(trajs, t)
	}
	return trajs, nil
}

func assembleFile(cfg *config.Config, path string) ([]*model.Trajectory[model.TerrestrialPoint], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	acfg := assembler.DefaultConfig(model.TerrestrialDistance)
	if cfg.Assembler.SeparationDistance > 0 {
		acfg.SeparationDistance = float64(cfg.Assembler.SeparationDistance)
	}
	if cfg.Assembler.SeparationTime > 0 {
		acfg.SeparationTime = time.Duration(cfg.Assembler.SeparationTime)
	}
	if cfg.Assembler.MinPoints > 0 {
		acfg.MinPoints = cfg.Assembler.MinPoints
	}
	if cfg.Assembler.CleanupInterval > 0 {
		acfg.CleanupInterval = cfg.Assembler.CleanupInterval
	}

	asm, err := assembler.New(acfg)
	if err != nil {
		return nil, err
	}
	return assembler.Collect(asm.Assemble(reader.NewTerrestrial(f, cfg.Reader)))
}

func writeReport(report Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if *outputPath == "" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(*outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputPath)
	return nil
}
