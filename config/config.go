package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		HTTP            HTTP
		Log             Log
		PG              PG
		S3              S3
		OutboxRelay     OutboxRelay
		Kafka           Kafka
		KafkaController KafkaController
		Cleanup         Cleanup
		Thumbnail       Thumbnail
		Upload          Upload
		Swagger         Swagger
		Metrics         Metrics
	}

	HTTP struct {
		Port           string `env:"HTTP_PORT,required"`
		UsePreforkMode bool   `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
		BodyLimit      int    `env:"HTTP_BODY_LIMIT" envDefault:"209715200"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	PG struct {
		PoolMax        int    `env:"PG_POOL_MAX,required"`
		URL            string `env:"PG_URL,required"`
		MigrateOnStart bool   `env:"PG_MIGRATE_ON_START" envDefault:"true"`
	}

	S3 struct {
		Endpoint       string        `env:"S3_ENDPOINT"`
		AccessKey      string        `env:"S3_ACCESS_KEY,required"`
		SecretKey      string        `env:"S3_SECRET_KEY,required"`
		Bucket         string        `env:"S3_BUCKET,required"`
		Region         string        `env:"S3_REGION" envDefault:"us-east-1"`
		PublicDomain   string        `env:"S3_PUBLIC_DOMAIN" envDefault:"s3.amazonaws.com"`
		UsePathStyle   bool          `env:"S3_USE_PATH_STYLE" envDefault:"false"`
		PresignTTL     time.Duration `env:"S3_PRESIGN_TTL" envDefault:"15m"`
		CfgLoadTimeout time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
	}

	Kafka struct {
		Brokers []string `env:"KAFKA_BROKERS,required"`
		GroupID string   `env:"KAFKA_GROUP_ID,required"`
		Topic   string   `env:"KAFKA_TOPIC" envDefault:"media-cleanup-intents"`
	}

	OutboxRelay struct {
		PollInterval        time.Duration `env:"OUTBOX_RELAY_POLL_INTERVAL" envDefault:"30s"`
		MarkFailedInterval  time.Duration `env:"OUTBOX_RELAY_MARK_FAILED_INTERVAL" envDefault:"2m"`
		CleanupInterval     time.Duration `env:"OUTBOX_RELAY_CLEANUP_INTERVAL" envDefault:"24h"`
		ProcessBatchTimeout time.Duration `env:"OUTBOX_RELAY_PROCESS_BATCH_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout     time.Duration `env:"OUTBOX_RELAY_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		BatchSize           int           `env:"OUTBOX_RELAY_BATCH_SIZE" envDefault:"100"`
		MaxRetries          int           `env:"OUTBOX_RELAY_MAX_RETRIES" envDefault:"5"`
	}

	KafkaController struct {
		CommitTimeout   time.Duration `env:"KAFKA_CONTROLLER_COMMIT_TIMEOUT" envDefault:"2s"`
		ProcessTimeout  time.Duration `env:"KAFKA_CONTROLLER_PROCESS_TIMEOUT" envDefault:"30s"`
		ShutdownTimeout time.Duration `env:"KAFKA_CONTROLLER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		Workers         int           `env:"KAFKA_CONTROLLER_WORKERS" envDefault:"4"`
	}

	// Cleanup tunes when a pending intent counts as abandoned and how long
	// finished intents are kept.
	Cleanup struct {
		StaleAfter      time.Duration `env:"CLEANUP_STALE_AFTER" envDefault:"5m"`
		Retention       time.Duration `env:"CLEANUP_RETENTION" envDefault:"168h"`
		ParallelDeletes int           `env:"CLEANUP_PARALLEL_DELETES" envDefault:"4"`
	}

	Thumbnail struct {
		FFmpegPath string        `env:"THUMBNAIL_FFMPEG_PATH" envDefault:"ffmpeg"`
		Offset     time.Duration `env:"THUMBNAIL_OFFSET" envDefault:"2s"`
		Width      int           `env:"THUMBNAIL_WIDTH" envDefault:"640"`
		Height     int           `env:"THUMBNAIL_HEIGHT" envDefault:"360"`
		Quality    int           `env:"THUMBNAIL_QUALITY" envDefault:"80"`
		Timeout    time.Duration `env:"THUMBNAIL_TIMEOUT" envDefault:"20s"`
	}

	Upload struct {
		MaxImageSize int64 `env:"UPLOAD_MAX_IMAGE_SIZE" envDefault:"10485760"`
		MaxVideoSize int64 `env:"UPLOAD_MAX_VIDEO_SIZE" envDefault:"209715200"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}

	Metrics struct {
		Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if cfg.Thumbnail.Quality < 1 || cfg.Thumbnail.Quality > 100 {
		return nil, fmt.Errorf("config error: THUMBNAIL_QUALITY must be within 1..100, got %d", cfg.Thumbnail.Quality)
	}

	return cfg, nil
}
