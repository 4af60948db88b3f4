package filicious

import (
	"context"
	"io"
	"os"
)

// ProgressFunc reports transfer progress; total is -1 when unknown.
type ProgressFunc func(transferred, total int64)

// transferBufSize is the chunk size for streamed transfers.
const transferBufSize = 32 * 1024

// UploadFile copies a local file onto an adapter through a stream, so
// large files never sit in memory whole. Progress may be nil.
func UploadFile(ctx context.Context, a Adapter, p, localPath string, progress ProgressFunc) error {
	f, err := os.Open(localPath)
	if err != nil {
		return &PathError{Op: "upload", Path: localPath, Err: err}
	}
	defer f.Close()

	total := int64(-1)
	if info, err := f.Stat(); err == nil {
		total = info.Size()
	}

	if err := a.CreateFile(ctx, p); err != nil {
		return err
	}
	stream, err := a.Open(ctx, p)
	if err != nil {
		return err
	}

	src := io.Reader(f)
	if progress != nil {
		src = &progressReader{reader: f, progress: progress, total: total}
	}
	if _, err := io.CopyBuffer(stream, src, make([]byte, transferBufSize)); err != nil {
		stream.Close()
		return &PathError{Op: "upload", Path: p, Err: err}
	}
	return stream.Close()
}

// DownloadFile copies a file from an adapter into a local file.
// Progress may be nil.
func DownloadFile(ctx context.Context, a Adapter, p, localPath string, progress ProgressFunc) error {
	stream, err := a.Open(ctx, p)
	if err != nil {
		return err
	}
	defer stream.Close()

	total := int64(-1)
	if st, err := a.Stat(ctx, p); err == nil {
		total = st.Size
	}

	f, err := os.Create(localPath)
	if err != nil {
		return &PathError{Op: "download", Path: localPath, Err: err}
	}

	src := io.Reader(stream)
	if progress != nil {
		src = &progressReader{reader: stream, progress: progress, total: total}
	}
	if _, err := io.CopyBuffer(f, src, make([]byte, transferBufSize)); err != nil {
		f.Close()
		return &PathError{Op: "download", Path: p, Err: err}
	}
	return f.Close()
}

// progressReader reports cumulative bytes read through it.
type progressReader struct {
	reader      io.Reader
	progress    ProgressFunc
	total       int64
	transferred int64
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.transferred += int64(n)
		r.progress(r.transferred, r.total)
	}
	return n, err
}
