package filicious

import (
	"context"
	"crypto/md5"  //nolint:gosec // integrity checks, not security
	"crypto/sha1" //nolint:gosec // integrity checks, not security
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"io"

	"github.com/cespare/xxhash/v2"
)

// ChecksumAlgorithm names a supported digest.
type ChecksumAlgorithm string

const (
	ChecksumMD5    ChecksumAlgorithm = "md5"
	ChecksumSHA1   ChecksumAlgorithm = "sha1"
	ChecksumSHA256 ChecksumAlgorithm = "sha256"
	ChecksumSHA512 ChecksumAlgorithm = "sha512"
	ChecksumCRC32  ChecksumAlgorithm = "crc32"
	ChecksumXXHash ChecksumAlgorithm = "xxhash"
)

// NewHasher creates a hash.Hash for the given algorithm.
func NewHasher(algorithm ChecksumAlgorithm) (hash.Hash, error) {
	switch algorithm {
	case ChecksumMD5:
		return md5.New(), nil //nolint:gosec
	case ChecksumSHA1:
		return sha1.New(), nil //nolint:gosec
	case ChecksumSHA256:
		return sha256.New(), nil
	case ChecksumSHA512:
		return sha512.New(), nil
	case ChecksumCRC32:
		return crc32.NewIEEE(), nil
	case ChecksumXXHash:
		return xxhash.New(), nil
	default:
		return nil, fmt.Errorf("%w: checksum algorithm %s", ErrUnsupported, algorithm)
	}
}

// CalculateChecksum digests everything the reader yields and returns the
// hex-encoded result.
func CalculateChecksum(r io.Reader, algorithm ChecksumAlgorithm) (string, error) {
	h, err := NewHasher(algorithm)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("calculate checksum: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CalculateChecksums digests multiple algorithms in a single pass.
func CalculateChecksums(r io.Reader, algorithms []ChecksumAlgorithm) (map[ChecksumAlgorithm]string, error) {
	if len(algorithms) == 0 {
		return nil, fmt.Errorf("no algorithms specified")
	}

	hashers := make(map[ChecksumAlgorithm]hash.Hash, len(algorithms))
	writers := make([]io.Writer, 0, len(algorithms))
	for _, algo := range algorithms {
		h, err := NewHasher(algo)
		if err != nil {
			return nil, err
		}
		hashers[algo] = h
		writers = append(writers, h)
	}

	if _, err := io.Copy(io.MultiWriter(writers...), r); err != nil {
		return nil, fmt.Errorf("calculate checksums: %w", err)
	}

	results := make(map[ChecksumAlgorithm]string, len(algorithms))
	for algo, h := range hashers {
		results[algo] = hex.EncodeToString(h.Sum(nil))
	}
	return results, nil
}

// Checksum digests a file on an adapter without loading it whole.
func Checksum(ctx context.Context, a ContentReadWriter, p string, algorithm ChecksumAlgorithm) (string, error) {
	stream, err := a.Open(ctx, p)
	if err != nil {
		return "", err
	}
	defer stream.Close()
	return CalculateChecksum(stream, algorithm)
}

// VerifyChecksum digests a file and compares against an expected value.
func VerifyChecksum(ctx context.Context, a ContentReadWriter, p, expected string, algorithm ChecksumAlgorithm) (bool, error) {
	actual, err := Checksum(ctx, a, p, algorithm)
	if err != nil {
		return false, err
	}
	return actual == expected, nil
}
