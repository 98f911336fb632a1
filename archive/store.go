package archive

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Store uploads local files as objects.
type Store interface {
	// Put uploads the file at localPath as object.
	Put(ctx context.Context, object, localPath string) error
	// Close releases the client.
	Close() error
}

// NewStore creates the Store selected by config.Backend. The config must
// have been validated.
func NewStore(ctx context.Context, config Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch config.Backend {
	case BackendGCS:
		return NewGCSStore(ctx, config, logger)
	case BackendMinIO:
		return NewMinIOStore(config)
	case BackendS3:
		return NewS3Store(ctx, config)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", config.Backend)
	}
}
