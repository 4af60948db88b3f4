package filicious_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/filicious/filicious"
)

func TestSpoolStreamReadsInitialContent(t *testing.T) {
	s, err := filicious.NewSpoolStream([]byte("initial"), nil)
	if err != nil {
		t.Fatalf("NewSpoolStream failed: %v", err)
	}
	defer s.Close()

	got, err := io.ReadAll(s)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != "initial" {
		t.Errorf("content = %q", got)
	}
}

func TestSpoolStreamWritesBackOnClose(t *testing.T) {
	var flushed []byte
	s, err := filicious.NewSpoolStream([]byte("old"), func(data []byte) error {
		flushed = data
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write([]byte("new content")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if !bytes.Equal(flushed, []byte("new content")) {
		t.Errorf("write-back content = %q", flushed)
	}
}

func TestSpoolStreamSkipsWriteBackWhenClean(t *testing.T) {
	called := false
	s, err := filicious.NewSpoolStream([]byte("data"), func([]byte) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := io.ReadAll(s); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("write-back invoked without any write")
	}
}

func TestSpoolStreamCloseIsIdempotent(t *testing.T) {
	calls := 0
	s, err := filicious.NewSpoolStream(nil, func([]byte) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Write([]byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if calls != 1 {
		t.Errorf("write-back ran %d times", calls)
	}

	if _, err := s.Read(make([]byte, 1)); !errors.Is(err, filicious.ErrClosed) {
		t.Errorf("Read after Close = %v, want ErrClosed", err)
	}
	if _, err := s.Write([]byte("y")); !errors.Is(err, filicious.ErrClosed) {
		t.Errorf("Write after Close = %v, want ErrClosed", err)
	}
	if _, err := s.Seek(0, io.SeekStart); !errors.Is(err, filicious.ErrClosed) {
		t.Errorf("Seek after Close = %v, want ErrClosed", err)
	}
}

func TestSpoolStreamPropagatesWriteBackError(t *testing.T) {
	boom := errors.New("backend write failed")
	s, err := filicious.NewSpoolStream(nil, func([]byte) error {
		return boom
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Write([]byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); !errors.Is(err, boom) {
		t.Errorf("Close = %v, want write-back error", err)
	}
}
