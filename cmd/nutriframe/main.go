package main

import (
	"context"
	"flag"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rewired-gh/nutriframe/internal/analysis"
	"github.com/rewired-gh/nutriframe/internal/config"
	"github.com/rewired-gh/nutriframe/internal/frame"
	"github.com/rewired-gh/nutriframe/internal/logger"
	"github.com/rewired-gh/nutriframe/internal/models"
	"github.com/rewired-gh/nutriframe/internal/report"
	"github.com/rewired-gh/nutriframe/internal/source"
	"github.com/rewired-gh/nutriframe/internal/storage"
	"github.com/rewired-gh/nutriframe/internal/telegram"
	"github.com/rewired-gh/nutriframe/internal/tutorial"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// Optional .env with secrets such as NUTRIFRAME_TELEGRAM_BOT_TOKEN
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	// Initialize storage
	var store *storage.Storage
	if cfg.Storage.Enabled {
		store = storage.New(cfg.Storage.MaxRuns, cfg.Storage.FilePath, 0, 0)
		if err := store.Load(); err != nil {
			logger.Fatal("Failed to load run archive: %v", err)
		}
		logger.Debug("Loaded %d archived runs from %s", store.Count(), cfg.Storage.FilePath)
	}

	// Initialize Telegram client
	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	run, runErr := runTutorial(ctx, cfg)

	if store != nil {
		if err := archive(store, run); err != nil {
			logger.Error("Failed to archive run: %v", err)
		} else {
			logger.Info("Archived run %s (%d runs kept)", run.ID, store.Count())
		}
	}

	if runErr != nil {
		logger.Fatal("Tutorial aborted: %v", runErr)
	}

	if telegramClient != nil {
		if err := telegramClient.Send(ctx, run); err != nil {
			logger.Error("Failed to send Telegram report: %v", err)
		} else {
			logger.Info("Sent report to Telegram")
		}
	}
}

func runTutorial(ctx context.Context, cfg *config.Config) (*models.Run, error) {
	run := &models.Run{
		ID:        storage.NewRunID(),
		Source:    cfg.Data.Source,
		StartedAt: time.Now(),
	}
	defer func() { run.FinishedAt = time.Now() }()

	style, err := report.ParseStyle(cfg.Tutorial.TableStyle)
	if err != nil {
		return run, err
	}

	src := source.NewClient(cfg.Data.Timeout, cfg.Data.MaxRetries)
	input, err := src.Open(ctx, cfg.Data.Source)
	if err != nil {
		return run, err
	}
	defer input.Close()
	logger.Info("Reading food composition data from %s", cfg.Data.Source)

	opts := tutorial.Options{
		Strict:   cfg.Tutorial.Strict,
		HeadRows: cfg.Tutorial.HeadRows,
		Report: report.Options{
			Precision: cfg.Tutorial.FloatPrecision,
			Style:     style,
			HideTypes: cfg.Tutorial.HideTypes,
		},
	}
	res, err := tutorial.NewRunner(frame.NewGota(), os.Stdout, opts).Run(input)
	if res != nil {
		run.Steps = res.Outcomes
		run.Report = res.Report
		if res.ZScores != nil {
			run.Scores = scores(res.ZScores)
		}
		logger.Info("Completed %d steps, %d demonstrated errors caught", len(res.Outcomes), len(run.Caught()))
	}
	return run, err
}

// scores converts the z-score table into archived regime scores.
func scores(z *frame.Frame) []models.RegimeScore {
	rows := z.ToMaps()
	out := make([]models.RegimeScore, 0, len(rows))
	for _, row := range rows {
		name, _ := row[analysis.ColRegime].(string)
		metrics := make(map[string]float64, len(row)-1)
		for k, v := range row {
			if k == analysis.ColRegime {
				continue
			}
			f, ok := v.(float64)
			if !ok {
				f = math.NaN()
			}
			metrics[k] = f
		}
		out = append(out, models.NewRegimeScore(name, metrics))
	}
	return out
}

func archive(store *storage.Storage, run *models.Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	if err := store.AddRun(run); err != nil {
		return err
	}
	if err := store.RotateRuns(); err != nil {
		logger.Warn("Failed to rotate runs: %v", err)
	}
	return store.Save()
}
