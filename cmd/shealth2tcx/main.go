package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/meltforce/shealth2tcx/internal/config"
	"github.com/meltforce/shealth2tcx/internal/convert"
	"github.com/meltforce/shealth2tcx/internal/shealth"
	"github.com/meltforce/shealth2tcx/internal/storage"
	"github.com/meltforce/shealth2tcx/internal/tcx"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	exportPath := flag.String("path", "", "path to the unpacked Samsung Health export")
	outDir := flag.String("out", "", "output directory for .tcx files (overrides output.dir)")
	dryRun := flag.Bool("dry-run", false, "convert in memory but write nothing")
	overwrite := flag.Bool("overwrite", false, "rewrite files even when unchanged")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("shealth2tcx", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *exportPath != "" {
		cfg.Export.Dir = *exportPath
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *overwrite {
		cfg.Output.Overwrite = true
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))

	if cfg.Export.Dir == "" {
		fmt.Fprintf(os.Stderr, "Usage: shealth2tcx -path <Samsung Health export dir> [-out dir] [-config config.yaml] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	info, err := os.Stat(cfg.Export.Dir)
	if err != nil || !info.IsDir() {
		log.Error("export directory not found", "path", cfg.Export.Dir)
		os.Exit(1)
	}
	log.Info("using export directory", "path", cfg.Export.Dir, "version", Version)

	// Open export ledger (skipped in dry-run; nothing is written)
	var ledger convert.Ledger
	if !*dryRun {
		db, err := storage.Open(cfg.State.Dir)
		if err != nil {
			log.Error("failed to open state database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		ledger = db
	} else {
		log.Info("DRY RUN mode: documents are built but not written")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conv := convert.New(
		shealth.NewExport(cfg.Export.Dir),
		tcx.NewBuilder(tcx.GarminNamespaces()),
		ledger,
		convert.Options{
			OutDir:        cfg.Output.Dir,
			ExerciseTypes: cfg.Convert.ExerciseTypes,
			Workers:       cfg.Convert.Workers,
			DumpDir:       cfg.Timeline.DumpDir,
			DryRun:        *dryRun,
			Overwrite:     cfg.Output.Overwrite,
		},
		log,
	)

	stats, err := conv.Run(ctx)
	if err != nil {
		if errors.Is(err, shealth.ErrNoSummaryFile) {
			log.Error("no exercise summary in export", "path", cfg.Export.Dir, "error", err)
		} else {
			log.Error("conversion failed", "error", err)
		}
		printStats(stats)
		os.Exit(1)
	}

	printStats(stats)
	log.Info("conversion complete", "run", stats.RunID)
}

func printStats(stats *convert.Stats) {
	fmt.Println()
	fmt.Println("=== Conversion Summary ===")
	fmt.Printf("  Activities total:     %d\n", stats.ActivitiesTotal)
	fmt.Printf("  Activities exported:  %d\n", stats.ActivitiesExported)
	fmt.Printf("  Activities unchanged: %d (already exported)\n", stats.ActivitiesUnchanged)
	fmt.Printf("  Activities filtered:  %d (exercise type not selected)\n", stats.ActivitiesFiltered)
	fmt.Printf("  Activities errored:   %d\n", stats.ActivitiesErrored)
	fmt.Println()
	fmt.Printf("  Trackpoints written:  %d\n", stats.TrackpointsWritten)
	fmt.Printf("  Bytes written:        %d\n", stats.BytesWritten)

	if len(stats.FailedActivities) > 0 {
		fmt.Printf("\n  Failed activities:\n")
		for _, id := range stats.FailedActivities {
			fmt.Printf("    - %s\n", id)
		}
	}
	fmt.Println()
}
