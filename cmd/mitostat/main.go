package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rewired-gh/mitostat/internal/classify"
	"github.com/rewired-gh/mitostat/internal/config"
	"github.com/rewired-gh/mitostat/internal/ingest"
	"github.com/rewired-gh/mitostat/internal/logger"
	"github.com/rewired-gh/mitostat/internal/report"
	"github.com/rewired-gh/mitostat/internal/review"
	"github.com/rewired-gh/mitostat/internal/storage"
)

var (
	configPath   = flag.String("config", "configs/config.yaml", "Path to configuration file")
	inputPath    = flag.String("input", "", "Path to the observation CSV file")
	onlyInterval = flag.Int("interval", 0, "Redo a single interval (1-based index); 0 analyzes all")
	runID        = flag.String("run", "", "Existing run ID to save into (required with -interval)")
	reportPath   = flag.String("report", "", "Write the HTML report to this path (overrides config)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	if *inputPath == "" {
		logger.Fatal("no input file given, use -input")
	}
	if *onlyInterval != 0 && *runID == "" {
		logger.Fatal("-interval requires -run to name the run being redone")
	}

	store, err := storage.New(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("failed to open result database: %v", err)
	}
	defer store.Close()

	// Graceful shutdown: a signal aborts the review loop but already
	// saved interval results stay valid.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Warn("shutdown signal received, aborting review")
		cancel()
	}()

	if err := run(ctx, cfg, store); err != nil {
		logger.Fatal("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, store *storage.Storage) error {
	observations, totalFrames, err := ingest.LoadFile(*inputPath)
	if err != nil {
		return err
	}
	logger.Info("loaded %d observations over %d frames from %s", len(observations), totalFrames, *inputPath)

	matrix, err := classify.BuildMatrix(observations, totalFrames)
	if err != nil {
		return err
	}

	seg, err := classify.SegmentFrames(totalFrames, cfg.Analysis.WindowSize, cfg.Analysis.OnsetFrame)
	if err != nil {
		return err
	}
	if seg.Note != "" {
		logger.Warn("%s", seg.Note)
	}
	logger.Info("segmented %d frames into %d intervals", totalFrames, len(seg.Intervals))

	classifier, err := classify.NewClassifier(classify.Params{
		HighThreshold:         cfg.Analysis.HighThreshold,
		LowThreshold:          cfg.Analysis.LowThreshold,
		MultiplicityThreshold: cfg.Analysis.MultiplicityThreshold,
		GapThreshold:          cfg.Analysis.GapThreshold,
	})
	if err != nil {
		return err
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	arbiter := review.New(provider)

	id, err := resolveRunID(cfg, store, totalFrames)
	if err != nil {
		return err
	}

	var reports []report.IntervalReport
	saved := 0
	for i, iv := range seg.Intervals {
		index := i + 1
		if *onlyInterval != 0 && index != *onlyInterval {
			continue
		}

		candidates, err := classifier.Evaluate(matrix, index, iv)
		if err != nil {
			return err
		}

		result, err := arbiter.Resolve(ctx, index, iv, candidates)
		if err != nil {
			if errors.Is(err, review.ErrAborted) {
				logger.Warn("run %s aborted; %d interval results already saved remain valid", id, saved)
				return nil
			}
			return err
		}

		if err := store.SaveIntervalResult(id, result); err != nil {
			return err
		}
		saved++
		logger.Info("interval %d (frames %d-%d): %d of %d references stationary",
			index, iv.Start, iv.End, result.StationaryCount, len(result.Decisions))

		reports = append(reports, report.IntervalReport{Result: result, Candidates: candidates})
	}

	logger.Info("run %s complete, %d interval results saved", id, saved)
	return writeReport(cfg, reports)
}

// resolveRunID reuses the run named by -run when a single interval is
// redone, otherwise records a new run with the parameter snapshot.
func resolveRunID(cfg *config.Config, store *storage.Storage, totalFrames int) (string, error) {
	if *runID != "" {
		ok, err := store.RunExists(*runID)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", errors.New("run " + *runID + " not found in the result database")
		}
		return *runID, nil
	}
	return store.CreateRun(storage.RunParams{
		Source:                *inputPath,
		TotalFrames:           totalFrames,
		WindowSize:            cfg.Analysis.WindowSize,
		OnsetFrame:            cfg.Analysis.OnsetFrame,
		HighThreshold:         cfg.Analysis.HighThreshold,
		LowThreshold:          cfg.Analysis.LowThreshold,
		MultiplicityThreshold: cfg.Analysis.MultiplicityThreshold,
		GapThreshold:          cfg.Analysis.GapThreshold,
	})
}

// buildProvider picks the confirmation channel from the review config.
func buildProvider(cfg *config.Config) (review.Provider, error) {
	switch cfg.Review.Mode {
	case "terminal":
		return review.NewTerminalProvider(os.Stdin, os.Stdout), nil
	case "telegram":
		return review.NewTelegramProvider(
			cfg.Review.Telegram.BotToken,
			cfg.Review.Telegram.ChatID,
			cfg.Review.Telegram.ReplyTimeout,
		)
	case "auto":
		return review.AutoProvider{}, nil
	default:
		return nil, errors.New("unknown review mode " + cfg.Review.Mode)
	}
}

func writeReport(cfg *config.Config, reports []report.IntervalReport) error {
	path := *reportPath
	if path == "" {
		if !cfg.Report.Enabled {
			return nil
		}
		path = cfg.Report.OutputPath
	}
	if len(reports) == 0 {
		return nil
	}
	if err := report.RenderFile(path, *inputPath, reports); err != nil {
		return err
	}
	logger.Info("report written to %s", path)
	return nil
}
