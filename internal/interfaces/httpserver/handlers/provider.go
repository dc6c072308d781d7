package handlers

import (
	"github.com/rs/zerolog"

	"jan-server/services/upload-api/internal/config"
	domain "jan-server/services/upload-api/internal/domain/upload"
)

// Provider wires HTTP handlers.
type Provider struct {
	Upload *UploadHandler
}

func NewProvider(cfg *config.Config, service domain.Service, log zerolog.Logger) *Provider {
	return &Provider{
		Upload: NewUploadHandler(cfg, service, log),
	}
}
