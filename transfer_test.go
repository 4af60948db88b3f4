package filicious_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/filicious/filicious"
	"github.com/filicious/filicious/adapter/memory"
)

func TestUploadDownloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	dir := t.TempDir()

	content := bytes.Repeat([]byte("0123456789abcdef"), 8192) // > one chunk
	src := filepath.Join(dir, "src.bin")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	var lastTransferred, lastTotal int64
	err := filicious.UploadFile(ctx, mem, "remote/file.bin", src, func(transferred, total int64) {
		lastTransferred, lastTotal = transferred, total
	})
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if lastTransferred != int64(len(content)) {
		t.Errorf("progress transferred = %d, want %d", lastTransferred, len(content))
	}
	if lastTotal != int64(len(content)) {
		t.Errorf("progress total = %d, want %d", lastTotal, len(content))
	}

	stored, err := mem.ReadFile(ctx, "remote/file.bin")
	if err != nil || !bytes.Equal(stored, content) {
		t.Fatalf("uploaded content mismatch: %v", err)
	}

	dst := filepath.Join(dir, "dst.bin")
	if err := filicious.DownloadFile(ctx, mem, "remote/file.bin", dst, nil); err != nil {
		t.Fatalf("DownloadFile failed: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil || !bytes.Equal(got, content) {
		t.Fatalf("downloaded content mismatch: %v", err)
	}
}

func TestUploadFileMissingLocal(t *testing.T) {
	err := filicious.UploadFile(context.Background(), memory.New(), "x", "/does/not/exist", nil)
	if err == nil {
		t.Fatal("upload from missing local file succeeded")
	}
}

func TestDownloadFileMissingRemote(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.bin")
	err := filicious.DownloadFile(context.Background(), memory.New(), "missing", dst, nil)
	if !filicious.IsNotExist(err) {
		t.Fatalf("download of missing remote = %v, want not-exist", err)
	}
}
