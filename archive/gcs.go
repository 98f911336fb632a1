package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

// GCSStore uploads files to Google Cloud Storage. Files larger than one
// chunk are uploaded as parallel parts and composed server-side.
type GCSStore struct {
	client      *storage.Client
	bucket      *storage.BucketHandle
	chunkSize   int64
	parallelism int
	chunks      *ChunkManager
	logger      *zap.Logger
}

// NewGCSStore creates a GCS client using application default credentials.
// The gRPC transport dials a pool of GRPCPoolSize connections.
func NewGCSStore(ctx context.Context, config Config, logger *zap.Logger) (*GCSStore, error) {
	client, err := newGCSClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	bkt := client.Bucket(config.Bucket)
	return &GCSStore{
		client:      client,
		bucket:      bkt,
		chunkSize:   int64(config.ChunkSize),
		parallelism: config.Parallelism,
		chunks:      NewChunkManager(bucketComposer{bkt: bkt}, config.MaxChunksPerCompose, logger),
		logger:      logger,
	}, nil
}

func newGCSClient(ctx context.Context, config Config) (*storage.Client, error) {
	var opts []option.ClientOption
	if config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(config.Endpoint), option.WithoutAuthentication())
	}

	if config.Transport == TransportHTTP {
		return storage.NewClient(ctx, opts...)
	}

	opts = append(opts,
		option.WithGRPCConnectionPool(config.GRPCPoolSize),
		option.WithGRPCDialOption(grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                60 * time.Second,
			Timeout:             20 * time.Second,
			PermitWithoutStream: false,
		})),
	)
	return storage.NewGRPCClient(ctx, opts...)
}

// Put uploads localPath as object.
func (s *GCSStore) Put(ctx context.Context, object, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	size := info.Size()

	if size <= s.chunkSize {
		return s.putObject(ctx, object, io.NewSectionReader(f, 0, size))
	}
	return s.putParallel(ctx, object, f, size)
}

func (s *GCSStore) putObject(ctx context.Context, object string, r io.Reader) error {
	w := s.bucket.Object(object).NewWriter(ctx)
	w.ChunkSize = int(s.chunkSize)
	w.ContentType = "application/octet-stream"
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", object, err)
	}
	return nil
}

// putParallel streams each part of f from its own section reader.
func (s *GCSStore) putParallel(ctx context.Context, object string, f *os.File, size int64) error {
	numChunks := int((size + s.chunkSize - 1) / s.chunkSize)
	tempPrefix := fmt.Sprintf("%s.tmp.%s", object, uuid.NewString())

	chunkObjects := make([]string, numChunks)
	for i := range numChunks {
		chunkObjects[i] = fmt.Sprintf("%s.chunk.%d", tempPrefix, i)
	}
	defer s.cleanup(context.WithoutCancel(ctx), chunkObjects)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i := range numChunks {
		offset := int64(i) * s.chunkSize
		n := min(s.chunkSize, size-offset)
		g.Go(func() error {
			if err := s.putObject(gctx, chunkObjects[i], io.NewSectionReader(f, offset, n)); err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := s.chunks.Compose(ctx, object, chunkObjects); err != nil {
		return err
	}

	attrs, err := s.bucket.Object(object).Attrs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get object attributes: %w", err)
	}
	if attrs.Size != size {
		_ = s.bucket.Object(object).Delete(ctx)
		return fmt.Errorf("size mismatch: expected %d bytes, got %d bytes", size, attrs.Size)
	}
	return nil
}

func (s *GCSStore) cleanup(ctx context.Context, objects []string) {
	for _, obj := range objects {
		err := s.bucket.Object(obj).Delete(ctx)
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			s.logger.Warn("failed to delete temporary chunk", zap.String("object", obj), zap.Error(err))
		}
	}
}

// Close closes the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
