package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/neehar-mavuduru/perfio/archive"
	"github.com/neehar-mavuduru/perfio/config"
	"github.com/neehar-mavuduru/perfio/logging"
	"github.com/neehar-mavuduru/perfio/logio"
)

func runLog(args []string) error {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	var (
		configPath     = fs.String("config", "", "YAML configuration file")
		path           = fs.String("path", "", "Log path (\"-\" for stdout)")
		compress       = fs.Bool("compress", false, "Compress through xz")
		truncate       = fs.Bool("truncate", false, "Truncate instead of append on first open")
		rotateInterval = fs.Duration("rotate-interval", 0, "Rotation interval (0 rotates on SIGHUP only)")
		backend        = fs.String("archive-backend", "", "Upload rotated archives to gcs, minio or s3")
		bucket         = fs.String("archive-bucket", "", "Archive bucket")
		prefix         = fs.String("archive-prefix", "", "Archive object prefix")
		metricsAddr    = fs.String("metrics-addr", "", "Serve prometheus metrics on this address")
		logLevel       = fs.String("log-level", "", "Log level (debug, info, warn, error)")
	)
	fs.Parse(args)

	cfg, err := config.Read(*configPath)
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "path":
			cfg.Sink.Path = *path
		case "compress":
			cfg.Sink.Compress = *compress
		case "truncate":
			cfg.Sink.Truncate = *truncate
		case "rotate-interval":
			cfg.Sink.RotateInterval = *rotateInterval
		case "archive-backend":
			cfg.Archive.Backend = *backend
		case "archive-bucket":
			cfg.Archive.Bucket = *bucket
		case "archive-prefix":
			cfg.Archive.ObjectPrefix = *prefix
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		case "log-level":
			cfg.Logging.Level = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := cfg.Sink.FileOptions()
	opts.Logger = logger
	sink := logio.NewFileWritable(cfg.Sink.Path, opts)
	if err := sink.Open(); err != nil {
		return err
	}

	var (
		uploader  *archive.Uploader
		completed chan<- string
	)
	if cfg.Archive.Enabled() {
		store, err := archive.NewStore(ctx, cfg.Archive, logger)
		if err != nil {
			sink.Close()
			return err
		}
		uploader, err = archive.NewUploader(cfg.Archive, store, logger)
		if err != nil {
			store.Close()
			sink.Close()
			return err
		}
		uploader.Start()
		completed = uploader.UploadChannel()
	}

	var rotator *logio.Rotator
	if sink.Path() != logio.StdioPath {
		rotator = logio.NewRotator(sink, logio.RotatorConfig{
			Interval:  cfg.Sink.RotateInterval,
			Completed: completed,
			Logger:    logger,
		})
		rotator.Start()
	}

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, sink, logger)
		defer srv.Close()
	}

	logger.Info("logging started",
		zap.String("path", sink.Path()),
		zap.Bool("compress", sink.Compressed()),
		zap.Duration("rotate_interval", cfg.Sink.RotateInterval),
		zap.String("archive_backend", cfg.Archive.Backend))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	copyDone := make(chan error, 1)
	go func() { copyDone <- copyLines(ctx, sink, os.Stdin) }()

	var copyErr error
wait:
	for {
		select {
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				if rotator != nil {
					logger.Info("rotation requested")
					rotator.RotateNow()
				}
				continue
			}
			logger.Info("received shutdown signal", zap.String("signal", sig.String()))
			break wait
		case copyErr = <-copyDone:
			break wait
		}
	}

	cancel()
	if rotator != nil {
		rotator.Stop()
	}
	errs := []error{copyErr, sink.Close()}
	if uploader != nil {
		errs = append(errs, uploader.Stop())
		stats := uploader.Stats()
		logger.Info("archive uploads finished",
			zap.Int64("successful", stats.Successful),
			zap.Int64("failed", stats.Failed),
			zap.Int64("bytes", stats.TotalBytes))
	}

	s := sink.Stats()
	logger.Info("logging stopped",
		zap.Int64("writes", s.Writes),
		zap.Int64("bytes", s.BytesWritten),
		zap.Int64("rotations", s.Rotations))
	return errors.Join(errs...)
}

// copyLines writes r to w one whole line per Write so a rotation never
// splits a line.
func copyLines(ctx context.Context, w io.Writer, r io.Reader) error {
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			if ctx.Err() != nil {
				return nil
			}
			if _, werr := w.Write(line); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}
}

func serveMetrics(addr string, sink *logio.FileWritable, logger *zap.Logger) *http.Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		logio.NewCollector(sink),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	return srv
}
