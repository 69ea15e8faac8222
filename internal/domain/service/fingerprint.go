package service

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/turtacn/dataguard/pkg/errors"
)

// Fingerprint returns the lowercase hex SHA-256 digest of content.
// Empty content cannot be fingerprinted.
func Fingerprint(content []byte) (string, error) {
	if len(content) == 0 {
		return "", errors.Integrity("content is empty")
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:]), nil
}

// FingerprintReader streams r through the hash and returns the digest and the number of bytes read.
func FingerprintReader(r io.Reader) (string, int64, error) {
	if r == nil {
		return "", 0, errors.Integrity("content is unreadable")
	}
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, errors.Integrity("content is unreadable").WithCause(err)
	}
	if n == 0 {
		return "", 0, errors.Integrity("content is empty")
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

//Personal.AI order the ending
