package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Uploader ships rotated archives to a Store. Archive paths are sent on
// the channel returned by UploadChannel and processed by one worker.
type Uploader struct {
	config      Config
	store       Store
	compactor   *Compactor
	uploadChan  chan string
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	uploadStats Stats
	statsMu     sync.RWMutex
	stopOnce    sync.Once
	stopErr     error
	logger      *zap.Logger
}

// Stats tracks upload statistics.
type Stats struct {
	TotalFiles     int64
	Successful     int64
	Failed         int64
	TotalBytes     int64
	TotalDuration  time.Duration
	LastUploadTime time.Time
}

// NewUploader creates an uploader writing to store.
func NewUploader(config Config, store Store, logger *zap.Logger) (*Uploader, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("archive store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	compactor, err := NewCompactor(config.Compaction, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Uploader{
		config:     config,
		store:      store,
		compactor:  compactor,
		uploadChan: make(chan string, config.ChannelBufferSize),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}, nil
}

// Start starts the upload worker.
func (u *Uploader) Start() {
	u.wg.Add(1)
	go u.uploadWorker()
}

// Stop drains pending archives, then closes the store. Nothing may be sent
// on the upload channel once Stop has been called.
func (u *Uploader) Stop() error {
	u.stopOnce.Do(func() {
		close(u.uploadChan)
		u.wg.Wait()
		u.cancel()
		u.stopErr = u.store.Close()
	})
	return u.stopErr
}

// Abort cancels in-flight retries and stops without draining.
func (u *Uploader) Abort() error {
	u.cancel()
	return u.Stop()
}

// UploadChannel returns the channel accepting archive paths.
func (u *Uploader) UploadChannel() chan<- string {
	return u.uploadChan
}

// Stats returns current upload statistics.
func (u *Uploader) Stats() Stats {
	u.statsMu.RLock()
	defer u.statsMu.RUnlock()
	return u.uploadStats
}

func (u *Uploader) uploadWorker() {
	defer u.wg.Done()

	for path := range u.uploadChan {
		if path == "" {
			continue
		}

		err := u.process(path)

		u.statsMu.Lock()
		u.uploadStats.TotalFiles++
		if err != nil {
			u.uploadStats.Failed++
		} else {
			u.uploadStats.Successful++
			u.uploadStats.LastUploadTime = time.Now()
		}
		u.statsMu.Unlock()

		if err != nil {
			u.logger.Error("archive upload failed", zap.String("path", path), zap.Error(err))
		}
	}
}

func (u *Uploader) process(path string) error {
	compacted, err := u.compactor.Compact(path)
	if err != nil {
		// Ship the original rather than lose it.
		u.logger.Warn("compaction failed, uploading original", zap.String("path", path), zap.Error(err))
		compacted = path
	}

	if err := u.uploadWithRetry(compacted); err != nil {
		return err
	}

	if u.config.DeleteAfterUpload {
		if err := os.Remove(compacted); err != nil {
			u.logger.Warn("failed to delete local archive after upload", zap.String("path", compacted), zap.Error(err))
		}
	}
	return nil
}

func (u *Uploader) uploadWithRetry(path string) error {
	object := u.ObjectName(path)

	var lastErr error
	for attempt := 0; attempt <= u.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-u.ctx.Done():
				return fmt.Errorf("uploader stopped: %w", lastErr)
			case <-time.After(u.config.RetryDelay):
			}
		}

		start := time.Now()
		err := u.store.Put(u.ctx, object, path)
		duration := time.Since(start)

		if err == nil {
			if info, statErr := os.Stat(path); statErr == nil {
				u.statsMu.Lock()
				u.uploadStats.TotalBytes += info.Size()
				u.uploadStats.TotalDuration += duration
				u.statsMu.Unlock()
			}
			u.logger.Info("uploaded archive",
				zap.String("path", path),
				zap.String("object", object),
				zap.Duration("duration", duration))
			return nil
		}

		lastErr = err
		if attempt < u.config.MaxRetries {
			u.logger.Warn("upload attempt failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", u.config.MaxRetries+1),
				zap.String("path", path),
				zap.Error(err))
		}
	}

	return fmt.Errorf("upload failed after %d attempts: %w", u.config.MaxRetries+1, lastErr)
}

// ObjectName maps a local archive path to its object name.
func (u *Uploader) ObjectName(path string) string {
	return u.config.ObjectPrefix + filepath.Base(path)
}
