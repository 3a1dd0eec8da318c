package printing

import (
	"context"
	"fmt"

	"github.com/erp/quotedesk/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewStorage creates the document storage selected by cfg.Storage
func NewStorage(ctx context.Context, cfg config.PrintingConfig, logger *zap.Logger) (DocumentStorage, error) {
	switch cfg.Storage {
	case "", "filesystem":
		return NewFileSystemStorage(cfg.OutputDir, "", logger)
	case "s3":
		return NewS3Storage(ctx, cfg.S3, logger)
	default:
		return nil, fmt.Errorf("unsupported document storage: %s", cfg.Storage)
	}
}

// NewServiceFromConfig builds a Chrome-backed Service. The browser is only
// started on the first render.
func NewServiceFromConfig(ctx context.Context, cfg config.PrintingConfig, logger *zap.Logger) (*Service, error) {
	storage, err := NewStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	builder, err := NewDocumentBuilder()
	if err != nil {
		return nil, err
	}
	renderer := NewChromedpRenderer(ChromedpConfig{
		RemoteURL:      cfg.ChromeURL,
		NoSandbox:      cfg.NoSandbox,
		DefaultTimeout: cfg.Timeout,
		Logger:         logger,
	})
	return NewService(renderer, storage, builder, WithServiceLogger(logger)), nil
}
