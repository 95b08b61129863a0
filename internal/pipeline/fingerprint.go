package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Supported fingerprint hash functions.
const (
	HashSHA256   = "sha256"
	HashXXHash64 = "xxhash64"
)

// DefaultHashLength is used by [hash] placeholders without an explicit length.
const DefaultHashLength = 20

// Hasher computes content fingerprints as lowercase hex strings.
type Hasher interface {
	Sum(data []byte) string
}

// NewHasher returns the Hasher for the named function.
// An empty name selects sha256.
func NewHasher(name string) (Hasher, error) {
	switch name {
	case "", HashSHA256:
		return sha256Hasher{}, nil
	case HashXXHash64:
		return xxHasher{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s, %s)", ErrInvalidHash, name, HashSHA256, HashXXHash64)
	}
}

type sha256Hasher struct{}

func (sha256Hasher) Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type xxHasher struct{}

// Sum returns the 16-digit zero-padded hex xxhash64 digest.
func (xxHasher) Sum(data []byte) string {
	s := strconv.FormatUint(xxhash.Sum64(data), 16)
	for len(s) < 16 {
		s = "0" + s
	}
	return s
}
