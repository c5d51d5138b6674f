package main

import (
	"context"
	"os"

	"github.com/hibiken/asynq"

	"validation-enricher/internal/config"
	"validation-enricher/internal/db"
	httpSrv "validation-enricher/internal/http"
	applog "validation-enricher/internal/log"
	"validation-enricher/internal/migrations"
	"validation-enricher/internal/storage"
)

func main() {
	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	logger := applog.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(config.RoleAPI); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Run embedded migrations (idempotent)
	if err := migrations.Run(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("migrations")
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
	asq := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer asq.Close()

	srv := httpSrv.NewServer(cfg.HTTPAddr, &httpSrv.Server{
		Jobs:     db.NewJobs(dbase),
		Blobs:    s3c,
		Queue:    asq,
		DB:       dbase,
		APIToken: cfg.APIToken,
		Log:      logger,
	})
	logger.Info().Str("addr", cfg.HTTPAddr).Msg("api listening")
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("http server")
	}
}
