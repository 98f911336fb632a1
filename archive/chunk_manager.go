package archive

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// ObjectComposer concatenates and deletes objects in one bucket.
type ObjectComposer interface {
	Compose(ctx context.Context, dst string, srcs []string) error
	Delete(ctx context.Context, object string) error
}

// ChunkManager composes uploaded parts into one object, building
// intermediate objects when there are more parts than a single compose
// accepts.
type ChunkManager struct {
	maxChunksPerCompose int // GCS allows at most 32 sources
	composer            ObjectComposer
	logger              *zap.Logger
}

// NewChunkManager creates a chunk manager over composer.
func NewChunkManager(composer ObjectComposer, maxChunksPerCompose int, logger *zap.Logger) *ChunkManager {
	if maxChunksPerCompose <= 1 {
		maxChunksPerCompose = 32
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChunkManager{
		maxChunksPerCompose: maxChunksPerCompose,
		composer:            composer,
		logger:              logger,
	}
}

// Compose writes the concatenation of chunks, in order, to object.
func (cm *ChunkManager) Compose(ctx context.Context, object string, chunks []string) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to compose")
	}
	if len(chunks) <= cm.maxChunksPerCompose {
		if err := cm.composer.Compose(ctx, object, chunks); err != nil {
			return fmt.Errorf("compose %s: %w", object, err)
		}
		return nil
	}
	return cm.composeLevel(ctx, object, chunks, 0)
}

// composeLevel groups chunks into intermediate objects and recurses until
// one compose covers them all.
func (cm *ChunkManager) composeLevel(ctx context.Context, object string, chunks []string, level int) error {
	var intermediates []string
	defer func() { cm.cleanup(ctx, intermediates) }()

	for i := 0; i < len(chunks); i += cm.maxChunksPerCompose {
		end := min(i+cm.maxChunksPerCompose, len(chunks))
		name := fmt.Sprintf("%s.intermediate.%d.%d", object, level, i/cm.maxChunksPerCompose)
		if err := cm.composer.Compose(ctx, name, chunks[i:end]); err != nil {
			return fmt.Errorf("compose intermediate %s: %w", name, err)
		}
		intermediates = append(intermediates, name)
	}

	if len(intermediates) <= cm.maxChunksPerCompose {
		if err := cm.composer.Compose(ctx, object, intermediates); err != nil {
			return fmt.Errorf("compose %s: %w", object, err)
		}
		return nil
	}
	return cm.composeLevel(ctx, object, intermediates, level+1)
}

func (cm *ChunkManager) cleanup(ctx context.Context, objects []string) {
	for _, obj := range objects {
		if err := cm.composer.Delete(ctx, obj); err != nil {
			cm.logger.Warn("failed to clean up object", zap.String("object", obj), zap.Error(err))
		}
	}
}

// bucketComposer implements ObjectComposer with GCS compose requests.
type bucketComposer struct {
	bkt *storage.BucketHandle
}

func (b bucketComposer) Compose(ctx context.Context, dst string, srcs []string) error {
	sources := make([]*storage.ObjectHandle, len(srcs))
	for i, src := range srcs {
		sources[i] = b.bkt.Object(src)
	}
	composer := b.bkt.Object(dst).ComposerFrom(sources...)
	composer.ContentType = "application/octet-stream"
	_, err := composer.Run(ctx)
	return err
}

func (b bucketComposer) Delete(ctx context.Context, object string) error {
	return b.bkt.Object(object).Delete(ctx)
}
