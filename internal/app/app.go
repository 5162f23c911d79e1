package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/config"
	kafkactrl "github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/controller/kafka"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/controller/restapi"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/controller/worker/outbox"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/infrastructure/ffmpeg"
	infrakafka "github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/infrastructure/kafka"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/infrastructure/processor"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/repo/persistent"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/usecase/cleanup"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/usecase/media"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/usecase/slot"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/usecase/thumbnail"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/httpserver"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/kafka/consumer"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/kafka/producer"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/logger"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/postgres"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/s3client"
)

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository

	// s3
	s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
	defer s3Cancel()
	s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey,
		s3client.Region(cfg.S3.Region),
		s3client.UsePathStyle(cfg.S3.UsePathStyle),
		s3client.ProbeBucket(cfg.S3.Bucket),
	)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - s3client.New: %w", err))
	}

	// postgres
	if cfg.PG.MigrateOnStart {
		if err := migrateUp(cfg.PG.URL, l); err != nil {
			l.Fatal(err)
		}
	}

	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
	}
	defer pg.Close()

	blobRepo := persistent.NewBlobRepo(s3c, cfg.S3.Bucket, cfg.S3.PublicDomain)
	mediaRepo := persistent.NewMediaRepo(pg)

	// Use-Case

	// cleanup use-case
	cleanupUseCase := cleanup.New(
		blobRepo,
		mediaRepo,
		persistent.NewCleanupIntentRepo(pg),
		pg,
		cleanup.Config{
			StaleAfter:      cfg.Cleanup.StaleAfter,
			Retention:       cfg.Cleanup.Retention,
			ParallelDeletes: cfg.Cleanup.ParallelDeletes,
		},
		l,
	)

	// thumbnail use-case
	grabber := ffmpeg.New(cfg.Thumbnail.FFmpegPath)
	if err := grabber.Available(); err != nil {
		l.Warn("app - Run - video thumbnails disabled: %v", err)
	}

	imageProcessor := processor.New()

	thumbnailUseCase := thumbnail.New(grabber, imageProcessor, thumbnail.Config{
		Offset:  cfg.Thumbnail.Offset,
		Width:   cfg.Thumbnail.Width,
		Height:  cfg.Thumbnail.Height,
		Quality: cfg.Thumbnail.Quality,
		Timeout: cfg.Thumbnail.Timeout,
	})

	// media use-case
	mediaUseCase := media.New(blobRepo, mediaRepo, pg, cleanupUseCase, thumbnailUseCase, cfg.S3.PresignTTL, l)

	// slot use-case
	slotUseCase := slot.New(blobRepo, persistent.NewRegistrationImageRepo(pg), pg, cleanupUseCase, imageProcessor, l)

	// Kafka Producer
	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - producer.New: %w", err))
	}

	// Cleanup Intent Relay Worker
	intentRelayWorker := outbox.New(
		cleanupUseCase,
		infrakafka.NewIntentProducer(kafkaProducer, cfg.Kafka.Topic),
		l,
		cfg.OutboxRelay.PollInterval,
		cfg.OutboxRelay.CleanupInterval,
		cfg.OutboxRelay.MarkFailedInterval,
		cfg.OutboxRelay.ProcessBatchTimeout,
		cfg.OutboxRelay.BatchSize,
		cfg.OutboxRelay.MaxRetries,
	)

	// Kafka Consumer
	kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - consumer.New: %w", err))
	}

	// Kafka as Controller
	kafkaController := kafkactrl.New(
		cleanupUseCase,
		infrakafka.NewIntentConsumer(kafkaConsumer),
		l,
		cfg.KafkaController.CommitTimeout,
		cfg.KafkaController.ProcessTimeout,
		cfg.KafkaController.Workers,
	)

	// HTTP Server
	httpServer := httpserver.New(l,
		httpserver.Port(cfg.HTTP.Port),
		httpserver.Prefork(cfg.HTTP.UsePreforkMode),
		httpserver.BodyLimit(cfg.HTTP.BodyLimit),
	)
	restapi.NewRouter(httpServer.App, cfg, mediaUseCase, slotUseCase, l)

	// Start Components
	err = intentRelayWorker.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - intentRelayWorker.Start: %w", err))
	}
	err = kafkaController.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - kafkaController.Start: %w", err))
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	irShutdownCtx, irShutdownCancel := context.WithTimeout(ctx, cfg.OutboxRelay.ShutdownTimeout)
	defer irShutdownCancel()
	err = intentRelayWorker.Shutdown(irShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - intentRelayWorker.Shutdown: %w", err))
	}

	kcShutdownCtx, kcShutdownCancel := context.WithTimeout(ctx, cfg.KafkaController.ShutdownTimeout)
	defer kcShutdownCancel()
	err = kafkaController.Shutdown(kcShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - kafkaController.Shutdown: %w", err))
	}
}
