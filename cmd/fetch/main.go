package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/marvin/jokebot/internal/config"
	"github.com/marvin/jokebot/internal/domain"
	"github.com/marvin/jokebot/internal/logger"
	"github.com/marvin/jokebot/internal/repository"
	"github.com/marvin/jokebot/internal/source"
	"github.com/marvin/jokebot/internal/source/jokeapi"
	"github.com/marvin/jokebot/internal/storage"
)

// The source samples randomly, so the loop needs a ceiling to avoid
// spinning forever once the upstream pool is nearly exhausted.
const maxBatches = 200

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "jokebot-fetch",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	target := flag.Int("target", 0, "Number of unique jokes to collect (0 uses config)")
	batchSize := flag.Int("batch", 0, "Jokes per API request (0 uses config)")
	snapshot := flag.Bool("snapshot", false, "Upload a corpus snapshot to object storage when done")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	if *target <= 0 {
		*target = cfg.Source.JokeAPI.TargetCount
	}
	if *batchSize <= 0 {
		*batchSize = cfg.Source.JokeAPI.BatchSize
	}

	appLogger.WithFields(logger.Fields{
		"target": *target,
		"batch":  *batchSize,
	}).Info("Starting joke fetch")

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	jokeRepo := repository.NewJokeRepository(db)
	src := jokeapi.NewAdapter(cfg.Source.JokeAPI.BaseURL)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	current, err := jokeRepo.Count(ctx)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to count existing jokes")
	}
	appLogger.WithField("count", current).Info("Starting with existing jokes")

	totalFetched := 0
	for batch := 1; current < int64(*target) && batch <= maxBatches; batch++ {
		if ctx.Err() != nil {
			break
		}

		items, err := src.FetchBatch(ctx, *batchSize)
		if err != nil {
			appLogger.WithError(err).Warn("Failed to fetch batch, retrying")
			continue
		}
		totalFetched += len(items)

		for _, item := range items {
			joke := itemToJoke(item)
			exists, err := jokeRepo.ExistsBySourceID(ctx, joke.SourceID)
			if err != nil {
				appLogger.WithError(err).Warn("Failed to check joke")
				continue
			}
			if exists {
				continue
			}
			if err := jokeRepo.Upsert(ctx, &joke); err != nil {
				appLogger.WithError(err).Warn("Failed to store joke")
			}
		}

		current, err = jokeRepo.Count(ctx)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to count jokes")
		}

		appLogger.WithFields(logger.Fields{
			logger.FieldSource: src.GetSourceID(),
			"batch":            batch,
			"fetched":          len(items),
			"unique":           current,
			"target":           *target,
		}).Info("Batch stored")
	}

	appLogger.WithFields(logger.Fields{
		"unique":        current,
		"total_fetched": totalFetched,
	}).Info("Fetch completed")

	if *snapshot && cfg.Snapshot.Enabled {
		if err := uploadSnapshot(ctx, cfg, jokeRepo); err != nil {
			appLogger.WithError(err).Fatal("Failed to upload snapshot")
		}
	}
}

// itemToJoke normalizes a fetched item into a corpus record.
func itemToJoke(item source.JokeItem) domain.Joke {
	category := item.Category
	if category == "" {
		category = domain.DefaultCategory
	}
	kind := domain.JokeKind(item.Kind)
	if kind != domain.JokeKindSingle && kind != domain.JokeKindTwopart {
		kind = domain.JokeKindSingle
	}
	return domain.Joke{
		SourceID:  strconv.Itoa(item.SourceID),
		Category:  category,
		Kind:      kind,
		Joke:      item.Joke,
		Setup:     item.Setup,
		Delivery:  item.Delivery,
		FetchedAt: time.Now(),
	}
}

// uploadSnapshot exports the corpus as JSON and uploads it to object
// storage under a timestamped key.
func uploadSnapshot(ctx context.Context, cfg *config.Config, jokeRepo *repository.JokeRepository) error {
	objectStorage, err := storage.NewStorage(&storage.S3Config{
		Type:      storage.StorageType(cfg.Snapshot.Type),
		Endpoint:  cfg.Snapshot.Endpoint,
		AccessKey: cfg.Snapshot.AccessKey,
		SecretKey: cfg.Snapshot.SecretKey,
		UseSSL:    cfg.Snapshot.UseSSL,
		Bucket:    cfg.Snapshot.Bucket,
		Region:    cfg.Snapshot.Region,
	})
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	if s3store, ok := objectStorage.(*storage.S3Storage); ok {
		if err := s3store.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure bucket: %w", err)
		}
	}

	jokes, err := jokeRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	data, err := json.MarshalIndent(jokes, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal corpus: %w", err)
	}

	key := fmt.Sprintf("snapshots/jokes-%s.json", time.Now().Format("20060102-150405"))
	if err := objectStorage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}

	logger.With(logger.Fields{
		logger.FieldSize: len(data),
	}).Info(ctx, "Snapshot uploaded: key=%s", key)

	return nil
}
