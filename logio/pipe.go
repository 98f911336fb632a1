package logio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// stage is one external process of a ProcessPipe.
type stage struct {
	cmd    *exec.Cmd
	stderr *bytes.Buffer
}

func newStage(cmd *exec.Cmd) stage {
	s := stage{cmd: cmd}
	if cmd.Stderr == nil {
		s.stderr = new(bytes.Buffer)
		cmd.Stderr = s.stderr
	}
	return s
}

func (s stage) name() string {
	return filepath.Base(s.cmd.Path)
}

func (s stage) wait() error {
	if err := s.cmd.Wait(); err != nil {
		pe := &ProcessExitError{Name: s.name(), Err: err}
		if s.stderr != nil {
			pe.Stderr = strings.TrimSpace(s.stderr.String())
		}
		return pe
	}
	return nil
}

// ProcessPipe owns a chain of at most two external processes where the
// first feeds the second. Shutdown always waits upstream before downstream.
type ProcessPipe struct {
	upstream   stage
	downstream *stage
	writeEnd   io.WriteCloser
	readEnd    io.ReadCloser
	shut       bool
}

// NewWritePipe starts compressor and, when writer is non-nil, writer with the
// compressor's stdout connected to the writer's stdin. Callers write into
// WriteEnd.
func NewWritePipe(compressor, writer *exec.Cmd) (*ProcessPipe, error) {
	up := newStage(compressor)
	stdin, err := compressor.StdinPipe()
	if err != nil {
		return nil, &ResourceError{Op: "pipe", Path: up.name(), Err: err}
	}

	if writer == nil {
		if err := compressor.Start(); err != nil {
			stdin.Close()
			return nil, &ResourceError{Op: "spawn", Path: up.name(), Err: err}
		}
		return &ProcessPipe{upstream: up, writeEnd: stdin}, nil
	}

	down := newStage(writer)
	r, w, err := os.Pipe()
	if err != nil {
		stdin.Close()
		return nil, &ResourceError{Op: "pipe", Path: down.name(), Err: err}
	}
	compressor.Stdout = w
	writer.Stdin = r

	if err := writer.Start(); err != nil {
		r.Close()
		w.Close()
		stdin.Close()
		return nil, &ResourceError{Op: "spawn", Path: down.name(), Err: err}
	}
	if err := compressor.Start(); err != nil {
		// The writer sees EOF once our copy of the write end is gone.
		r.Close()
		w.Close()
		stdin.Close()
		_ = down.wait()
		return nil, &ResourceError{Op: "spawn", Path: up.name(), Err: err}
	}

	// Both children hold their own copies now.
	r.Close()
	w.Close()

	return &ProcessPipe{upstream: up, downstream: &down, writeEnd: stdin}, nil
}

// NewReadPipe starts decompressor and exposes its stdout as ReadEnd.
func NewReadPipe(decompressor *exec.Cmd) (*ProcessPipe, error) {
	up := newStage(decompressor)
	stdout, err := decompressor.StdoutPipe()
	if err != nil {
		return nil, &ResourceError{Op: "pipe", Path: up.name(), Err: err}
	}
	if err := decompressor.Start(); err != nil {
		return nil, &ResourceError{Op: "spawn", Path: up.name(), Err: err}
	}
	return &ProcessPipe{upstream: up, readEnd: stdout}, nil
}

// WriteEnd is the stdin of the upstream process, or nil for read pipes.
func (p *ProcessPipe) WriteEnd() io.WriteCloser { return p.writeEnd }

// ReadEnd is the stdout of the upstream process, or nil for write pipes.
func (p *ProcessPipe) ReadEnd() io.ReadCloser { return p.readEnd }

// Shutdown closes our end of the pipe and waits for both processes in
// dependency order. Calling it again is a no-op.
func (p *ProcessPipe) Shutdown() error {
	if p == nil || p.shut {
		return nil
	}
	p.shut = true

	var errs []error
	if p.writeEnd != nil {
		if err := p.writeEnd.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, fmt.Errorf("close %s stdin: %w", p.upstream.name(), err))
		}
	}
	if p.readEnd != nil {
		if err := p.readEnd.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, fmt.Errorf("close %s stdout: %w", p.upstream.name(), err))
		}
	}

	if err := p.upstream.wait(); err != nil {
		errs = append(errs, err)
	}
	if p.downstream != nil {
		if err := p.downstream.wait(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
