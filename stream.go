package filicious

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// spoolStream materializes file content in a local temporary file so
// backends without native streaming can still hand out a seekable
// Stream. The temporary resource is scoped to the stream: Close flushes
// modified content back through the writeBack callback and removes the
// spool file on every exit path. Nothing is left for process shutdown
// hooks to clean up.
type spoolStream struct {
	f         *os.File
	writeBack func(data []byte) error
	dirty     bool
	closed    bool
}

// NewSpoolStream spools data into a temporary file and returns a Stream
// positioned at the start. When the stream was written to, Close passes
// the final content to writeBack; a nil writeBack makes the stream
// effectively read-only plus scratch space.
func NewSpoolStream(data []byte, writeBack func(data []byte) error) (Stream, error) {
	f, err := os.CreateTemp("", "filicious-spool-*")
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("fill spool file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("rewind spool file: %w", err)
	}

	return &spoolStream{f: f, writeBack: writeBack}, nil
}

func (s *spoolStream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	return s.f.Read(p)
}

func (s *spoolStream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	s.dirty = true
	return s.f.Write(p)
}

func (s *spoolStream) Seek(offset int64, whence int) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	return s.f.Seek(offset, whence)
}

// Close flushes written content back to the backend and releases the
// spool file. It is safe to call more than once.
func (s *spoolStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error

	if s.dirty && s.writeBack != nil {
		if _, err := s.f.Seek(0, io.SeekStart); err != nil {
			errs = append(errs, err)
		} else if data, err := io.ReadAll(s.f); err != nil {
			errs = append(errs, err)
		} else if err := s.writeBack(data); err != nil {
			errs = append(errs, err)
		}
	}

	if err := s.f.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := os.Remove(s.f.Name()); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
