package main

import (
	"context"
	"os"

	"validation-enricher/internal/config"
	"validation-enricher/internal/db"
	applog "validation-enricher/internal/log"
	"validation-enricher/internal/storage"
	"validation-enricher/internal/worker"
)

func main() {
	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	logger := applog.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(config.RoleWorker); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	dbase, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("database")
	}
	s3c, err := storage.New(ctx, storage.Options{
		Endpoint:  cfg.MinioEndpoint,
		Bucket:    cfg.MinioBucket,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Region:    cfg.S3Region,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("object storage")
	}

	srv := &worker.Server{Jobs: db.NewJobs(dbase), Blobs: s3c, Log: logger}
	opts := worker.Options{RedisAddr: cfg.RedisAddr, Concurrency: cfg.WorkerConcurrency}
	if err := worker.Run(opts, srv); err != nil {
		logger.Fatal().Err(err).Msg("worker")
	}
}
