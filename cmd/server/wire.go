//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"jan-server/services/upload-api/internal/config"
	domain "jan-server/services/upload-api/internal/domain/upload"
	"jan-server/services/upload-api/internal/infrastructure/logger"
	"jan-server/services/upload-api/internal/infrastructure/storage"
	"jan-server/services/upload-api/internal/interfaces/httpserver"
)

var uploadSet = wire.NewSet(
	provideStorage,
	domain.NewService,
)

// BuildApplication assembles the upload API with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		uploadSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

// provideStorage creates the S3 storage backend.
func provideStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (domain.Storage, error) {
	s3Storage, err := storage.NewS3Storage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return s3Storage, nil
}
