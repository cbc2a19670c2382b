package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"tracksmith/pkg/assembler"
	"tracksmith/pkg/config"
	"tracksmith/pkg/db"
	"tracksmith/pkg/logging"
	"tracksmith/pkg/model"
	"tracksmith/pkg/reader"
	"tracksmith/pkg/store"
	"tracksmith/pkg/tracker"
	"tracksmith/pkg/version"
	"tracksmith/pkg/writer"
)

const assembleStage = "assemble"

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", "configs/tracksmith.yaml", "Path to config file")

	inputPath = flag.String("input", "", "Input delimited-text point file (\"-\" for stdin)")
	coords    = flag.String("coords", "terrestrial", "Coordinate system: terrestrial, cartesian2d or cartesian3d")

	outputCSV     = flag.String("output-csv", "", "Write assembled trajectories as delimited text")
	outputKML     = flag.String("output-kml", "", "Write assembled trajectories as KML")
	outputGeoJSON = flag.String("output-geojson", "", "Write assembled trajectories as GeoJSON")
	storeDB       = flag.Bool("store", false, "Persist assembled trajectories to the configured database")

	sepDistance = flag.Float64("separation-distance", 0, "Split threshold in distance units (overrides config)")
	sepSeconds  = flag.Float64("separation-seconds", 0, "Split threshold in seconds (overrides config)")
	minPoints   = flag.Int("min-points", 0, "Minimum points per emitted trajectory (overrides config)")
	cleanupIval = flag.Int("clean-up-interval", 0, "Points between idle-track sweeps (overrides config)")

	progressEvery = flag.Int("progress", 100000, "Report progress every N input points (0 disables)")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	if *inputPath == "" {
		flag.Usage()
		fmt.Fprintln(os.Stderr, "An input file is required")
		os.Exit(2)
	}

	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "tracksmith: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	appCfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	applyOverrides(appCfg)
	slog.Info("Tracksmith started", "version", version.Version, "input", *inputPath, "coords", *coords)

	in, closeIn, err := openInput(*inputPath)
	if err != nil {
		return err
	}
	defer closeIn()

	tr := tracker.New()
	switch *coords {
	case "terrestrial":
		return runTerrestrial(ctx, appCfg, in, tr)
	case "cartesian2d":
		src := reader.NewCartesian2D(in, appCfg.Reader)
		return runCounted(appCfg, src, src.Skipped, model.CartesianDistance2D, tr)
	case "cartesian3d":
		src, err := reader.NewCartesian3D(in, appCfg.Reader)
		if err != nil {
			return err
		}
		return runCounted(appCfg, src, src.Skipped, model.CartesianDistance3D, tr)
	default:
		return fmt.Errorf("unknown coordinate system %q", *coords)
	}
}

func applyOverrides(cfg *config.Config) {
	if *sepDistance > 0 {
		cfg.Assembler.SeparationDistance = config.Distance(*sepDistance)
	}
	if *sepSeconds > 0 {
		cfg.Assembler.SeparationTime = config.Duration(time.Duration(*sepSeconds * float64(time.Second)))
	}
	if *minPoints > 0 {
		cfg.Assembler.MinPoints = *minPoints
	}
	if *cleanupIval > 0 {
		cfg.Assembler.CleanupInterval = *cleanupIval
	}
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func assemblerConfig[P model.Point](cfg *config.Config, metric func(a, b P) float64) assembler.Config[P] {
	acfg := assembler.DefaultConfig(metric)
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
	return acfg
}

func runTerrestrial(ctx context.Context, cfg *config.Config, in io.Reader, tr *tracker.Tracker) error {
	src := reader.NewTerrestrial(in, cfg.Reader)
	asm, err := assembler.New(assemblerConfig(cfg, model.TerrestrialDistance))
	if err != nil {
		return err
	}

	stream := asm.Assemble(src)
	defer stream.Close()

	var trajs []*model.Trajectory[model.TerrestrialPoint]
	reported := 0
	for stream.Next() {
		trajs = append(trajs, stream.Trajectory())
		reported = reportProgress(stream.Stats(), reported)
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("assembly failed: %w", err)
	}

	stats := stream.Stats()
	trackStats(tr, stats, src.Skipped())
	printReport(stats, src.Skipped(), len(trajs))

	if err := writeOutputs(cfg, trajs); err != nil {
		return err
	}
	if *storeDB {
		return storeTrajectories(ctx, cfg, trajs, stats)
	}
	return nil
}

// runCounted assembles non-terrestrial input where no geographic output
// formats apply and reports the final counts only.
func runCounted[P model.Point](cfg *config.Config, src assembler.Source[P], skipped func() int64, metric func(a, b P) float64, tr *tracker.Tracker) error {
	if *outputKML != "" || *outputGeoJSON != "" || *outputCSV != "" || *storeDB {
		return fmt.Errorf("output formats require terrestrial coordinates")
	}

	asm, err := assembler.New(assemblerConfig(cfg, metric))
	if err != nil {
		return err
	}

	stream := asm.Assemble(src)
	defer stream.Close()

	count := 0
	reported := 0
	for stream.Next() {
		count++
		reported = reportProgress(stream.Stats(), reported)
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("assembly failed: %w", err)
	}

	stats := stream.Stats()
	trackStats(tr, stats, skipped())
	printReport(stats, skipped(), count)
	return nil
}

func reportProgress(stats assembler.Stats, reported int) int {
	if *progressEvery <= 0 {
		return reported
	}
	if stats.PointsProcessed / *progressEvery > reported / *progressEvery {
		fmt.Fprintf(os.Stderr, "processed %d points, %d trajectories so far\n",
			stats.PointsProcessed, stats.TrajectoriesEmitted)
	}
	return stats.PointsProcessed
}

func trackStats(tr *tracker.Tracker, stats assembler.Stats, skipped int64) {
	tr.TrackPointsIn(assembleStage, int64(stats.PointsProcessed))
	tr.TrackPointsSkipped(assembleStage, skipped)
	tr.TrackTrajectoriesOut(assembleStage, int64(stats.TrajectoriesEmitted))
	tr.TrackTrajectoriesDropped(assembleStage, int64(stats.TrajectoriesDiscarded))
}

func printReport(stats assembler.Stats, skipped int64, emitted int) {
	fmt.Fprintf(os.Stderr, "done: %d points processed, %d skipped, %d trajectories emitted, %d discarded\n",
		stats.PointsProcessed, skipped, emitted, stats.TrajectoriesDiscarded)
}

func writeOutputs(cfg *config.Config, trajs []*model.Trajectory[model.TerrestrialPoint]) error {
	if *outputCSV != "" {
		f, err := os.Create(*outputCSV)
		if err != nil {
			return fmt.Errorf("failed to create csv output: %w", err)
		}
		defer f.Close()
		w := writer.NewCSV(f, cfg.Reader.Delimiter, cfg.Reader.TimeLayout)
		for _, t := range trajs {
			if err := w.Write(t); err != nil {
				return err
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	if *outputKML != "" {
		f, err := os.Create(*outputKML)
		if err != nil {
			return fmt.Errorf("failed to create kml output: %w", err)
		}
		defer f.Close()
		if err := writer.WriteKML(f, "tracksmith", trajs); err != nil {
			return err
		}
	}
	if *outputGeoJSON != "" {
		f, err := os.Create(*outputGeoJSON)
		if err != nil {
			return fmt.Errorf("failed to create geojson output: %w", err)
		}
		defer f.Close()
		if err := writer.WriteGeoJSON(f, trajs); err != nil {
			return err
		}
	}
	return nil
}

func storeTrajectories(ctx context.Context, cfg *config.Config, trajs []*model.Trajectory[model.TerrestrialPoint], stats assembler.Stats) error {
	dbConn, err := db.Init(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	st := store.NewSQLiteStore(dbConn)
	defer st.Close()

	run, err := st.CreateRun(ctx, *inputPath)
	if err != nil {
		return err
	}
	for _, t := range trajs {
		if _, err := st.SaveTrajectory(ctx, run.ID, t); err != nil {
			return fmt.Errorf("failed to store trajectory for %s: %w", t.ObjectID, err)
		}
	}

	run.PointsProcessed = int64(stats.PointsProcessed)
	run.TrajectoriesEmitted = int64(stats.TrajectoriesEmitted)
	run.TrajectoriesDiscarded = int64(stats.TrajectoriesDiscarded)
	if err := st.FinishRun(ctx, run); err != nil {
		return err
	}
	slog.Info("Stored run", "id", run.ID, "trajectories", len(trajs))
	return nil
}
