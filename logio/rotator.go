package logio

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// RotatorConfig configures a Rotator.
type RotatorConfig struct {
	// Interval between periodic rotations; 0 rotates only on RotateNow.
	// Archive names have one-second resolution, so shorter intervals are
	// raised to one second.
	Interval time.Duration

	// Completed receives archive paths. Sends never block; a full channel
	// drops the notification with a warning.
	Completed chan<- string

	// Now stamps archive names (default time.Now).
	Now func() time.Time

	Logger *zap.Logger
}

// Rotator drives FileWritable.Rotate from a ticker and from explicit
// requests such as SIGHUP.
type Rotator struct {
	w        *FileWritable
	config   RotatorConfig
	requests chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewRotator creates a stopped rotator for w.
func NewRotator(w *FileWritable, config RotatorConfig) *Rotator {
	if config.Interval > 0 && config.Interval < time.Second {
		config.Interval = time.Second
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &Rotator{
		w:        w,
		config:   config,
		requests: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Start launches the rotation worker.
func (r *Rotator) Start() {
	r.wg.Add(1)
	go r.worker()
}

// RotateNow requests a rotation. Requests made while one is pending are
// coalesced.
func (r *Rotator) RotateNow() {
	select {
	case r.requests <- struct{}{}:
	default:
	}
}

// Stop ends the worker and waits for an in-flight rotation to finish.
func (r *Rotator) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
	r.wg.Wait()
}

func (r *Rotator) worker() {
	defer r.wg.Done()

	var tick <-chan time.Time
	if r.config.Interval > 0 {
		ticker := time.NewTicker(r.config.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-r.done:
			return
		case <-tick:
			r.rotate()
		case <-r.requests:
			r.rotate()
		}
	}
}

func (r *Rotator) rotate() {
	archivePath, err := r.w.Rotate(r.config.Now())
	if err != nil {
		r.config.Logger.Error("scheduled rotation failed", zap.String("path", r.w.Path()), zap.Error(err))
	}
	if archivePath == "" || r.config.Completed == nil {
		return
	}

	select {
	case r.config.Completed <- archivePath:
	default:
		r.config.Logger.Warn("completed channel full, dropping archive notification", zap.String("archive", archivePath))
	}
}
