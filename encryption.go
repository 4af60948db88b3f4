package filicious

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// Encrypted wraps an Adapter and seals file contents with AES-GCM. Each
// file is stored as nonce followed by a single sealed blob, so partial
// access (Append, Truncate, Open) cannot be served and is declared
// unsupported. Size reports the ciphertext size, not the plaintext.
type Encrypted struct {
	Adapter
	aead cipher.AEAD
}

// NewEncrypted wraps an adapter with transparent encryption. The key
// must be 16, 24 or 32 bytes, selecting AES-128, -192 or -256.
func NewEncrypted(a Adapter, key []byte) (*Encrypted, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Encrypted{Adapter: a, aead: aead}, nil
}

// Unwrap returns the underlying adapter.
func (e *Encrypted) Unwrap() Adapter { return e.Adapter }

func (e *Encrypted) WriteFile(ctx context.Context, p string, data []byte) error {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return &PathError{Op: "write", Path: p, Err: err}
	}
	sealed := e.aead.Seal(nonce, nonce, data, nil)
	return e.Adapter.WriteFile(ctx, p, sealed)
}

func (e *Encrypted) ReadFile(ctx context.Context, p string) ([]byte, error) {
	sealed, err := e.Adapter.ReadFile(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(sealed) < e.aead.NonceSize() {
		return nil, &PathError{Op: "read", Path: p, Err: fmt.Errorf("ciphertext shorter than nonce")}
	}
	nonce, ciphertext := sealed[:e.aead.NonceSize()], sealed[e.aead.NonceSize():]
	data, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, &PathError{Op: "read", Path: p, Err: err}
	}
	return data, nil
}

// Append cannot extend a sealed blob in place.
func (e *Encrypted) Append(ctx context.Context, p string, data []byte) error {
	return &PathError{Op: "append", Path: p, Err: ErrUnsupported}
}

// Truncate cannot cut a sealed blob in place.
func (e *Encrypted) Truncate(ctx context.Context, p string, size int64) error {
	return &PathError{Op: "truncate", Path: p, Err: ErrUnsupported}
}

// Open cannot hand out a random-access handle into a sealed blob.
func (e *Encrypted) Open(ctx context.Context, p string) (Stream, error) {
	return nil, &PathError{Op: "open", Path: p, Err: ErrUnsupported}
}

// MIMEType probes the decrypted content; the stored bytes would always
// sniff as binary.
func (e *Encrypted) MIMEType(ctx context.Context, p string) (string, error) {
	data, err := e.ReadFile(ctx, p)
	if err != nil {
		return "", err
	}
	return GuessMIMEType(p, data), nil
}

// MIMEEncoding probes the decrypted content.
func (e *Encrypted) MIMEEncoding(ctx context.Context, p string) (string, error) {
	data, err := e.ReadFile(ctx, p)
	if err != nil {
		return "", err
	}
	return GuessMIMEEncoding(data), nil
}

var _ Adapter = (*Encrypted)(nil)
