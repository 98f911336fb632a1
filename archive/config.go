package archive

import (
	"fmt"
	"time"
)

// Supported storage backends.
const (
	BackendGCS   = "gcs"
	BackendMinIO = "minio"
	BackendS3    = "s3"
)

// GCS client transports.
const (
	TransportGRPC = "grpc"
	TransportHTTP = "http"
)

// Supported compaction formats.
const (
	FormatNone = ""
	FormatZstd = "zstd"
	FormatGzip = "gzip"
	FormatLZ4  = "lz4"
)

// Config holds the configuration for shipping rotated archives.
type Config struct {
	// Backend selects the object store; empty disables uploads.
	Backend      string `yaml:"backend" envconfig:"ARCHIVE_BACKEND"`
	Bucket       string `yaml:"bucket" envconfig:"ARCHIVE_BUCKET"`
	ObjectPrefix string `yaml:"object_prefix" envconfig:"ARCHIVE_PREFIX"` // e.g. "onionperf/host1/"

	// Transfer tuning
	ChunkSize           int           `yaml:"chunk_size" envconfig:"ARCHIVE_CHUNK_SIZE"`              // Part size for parallel upload (default: 32MB)
	Parallelism         int           `yaml:"parallelism" envconfig:"ARCHIVE_PARALLELISM"`            // Concurrent part uploads (default: 8)
	MaxChunksPerCompose int           `yaml:"max_chunks_per_compose" envconfig:"ARCHIVE_MAX_COMPOSE"` // GCS compose fan-in (default: 32)
	MaxRetries          int           `yaml:"max_retries" envconfig:"ARCHIVE_MAX_RETRIES"`            // Retry attempts (default: 3)
	RetryDelay          time.Duration `yaml:"retry_delay" envconfig:"ARCHIVE_RETRY_DELAY"`            // Delay between retries (default: 5s)
	Transport           string        `yaml:"transport" envconfig:"ARCHIVE_TRANSPORT"`                // GCS client transport, grpc or http (default: grpc)
	GRPCPoolSize        int           `yaml:"grpc_pool_size" envconfig:"ARCHIVE_GRPC_POOL"`           // GCS gRPC connection pool (default: 4)
	ChannelBufferSize   int           `yaml:"channel_buffer_size" envconfig:"ARCHIVE_CHANNEL_BUFFER"` // Pending archive paths (default: 100)
	DeleteAfterUpload   bool          `yaml:"delete_after_upload" envconfig:"ARCHIVE_DELETE_AFTER_UPLOAD"`

	// Compaction recompresses plain archives before upload.
	Compaction string `yaml:"compaction" envconfig:"ARCHIVE_COMPACTION"`

	// Endpoint and credentials for MinIO/S3-compatible stores, or a GCS
	// emulator endpoint.
	Endpoint  string `yaml:"endpoint" envconfig:"ARCHIVE_ENDPOINT"`
	Region    string `yaml:"region" envconfig:"ARCHIVE_REGION"`
	AccessKey string `yaml:"access_key" envconfig:"ARCHIVE_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" envconfig:"ARCHIVE_SECRET_KEY"`
	UseSSL    bool   `yaml:"use_ssl" envconfig:"ARCHIVE_USE_SSL"`
}

// DefaultConfig returns an upload configuration with defaults for backend
// and bucket.
func DefaultConfig(backend, bucket string) Config {
	return Config{
		Backend:             backend,
		Bucket:              bucket,
		ChunkSize:           32 * 1024 * 1024, // 32MB
		Parallelism:         8,
		MaxChunksPerCompose: 32, // GCS limit
		MaxRetries:          3,
		RetryDelay:          5 * time.Second,
		Transport:           TransportGRPC,
		GRPCPoolSize:        4,
		ChannelBufferSize:   100,
		Compaction:          FormatZstd,
		UseSSL:              true,
	}
}

// Enabled reports whether a backend is configured.
func (c Config) Enabled() bool {
	return c.Backend != ""
}

// Validate checks the configuration and applies defaults where needed.
func (c *Config) Validate() error {
	switch c.Backend {
	case "":
	case BackendGCS, BackendMinIO, BackendS3:
		if c.Bucket == "" {
			return fmt.Errorf("bucket name is required")
		}
	default:
		return fmt.Errorf("unknown archive backend %q", c.Backend)
	}

	if c.Backend == BackendMinIO && c.Endpoint == "" {
		return fmt.Errorf("endpoint is required for the minio backend")
	}

	switch c.Compaction {
	case FormatNone, FormatZstd, FormatGzip, FormatLZ4:
	default:
		return fmt.Errorf("unknown compaction format %q", c.Compaction)
	}

	if c.ChunkSize <= 0 {
		c.ChunkSize = 32 * 1024 * 1024 // 32MB default
	}
	if c.Backend == BackendS3 && c.ChunkSize < 5*1024*1024 {
		return fmt.Errorf("chunk size %d is below the S3 multipart minimum of 5MB", c.ChunkSize)
	}

	if c.Parallelism <= 0 {
		c.Parallelism = 8
	}

	if c.MaxChunksPerCompose <= 0 || c.MaxChunksPerCompose > 32 {
		c.MaxChunksPerCompose = 32 // GCS limit
	}

	if c.MaxRetries < 0 {
		c.MaxRetries = 3
	}

	if c.RetryDelay <= 0 {
		c.RetryDelay = 5 * time.Second
	}

	switch c.Transport {
	case "":
		c.Transport = TransportGRPC
	case TransportGRPC, TransportHTTP:
	default:
		return fmt.Errorf("unknown gcs transport %q", c.Transport)
	}

	if c.GRPCPoolSize <= 0 {
		c.GRPCPoolSize = 4
	}

	if c.ChannelBufferSize <= 0 {
		c.ChannelBufferSize = 100
	}

	return nil
}
