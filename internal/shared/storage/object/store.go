// Package object stores uploaded files such as syllabi and their extracted text.
package object

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ObjectStore defines the contract for saving and retrieving binary objects.
type ObjectStore interface {
	// Save stores r under a fresh key in the owner's namespace.
	Save(ctx context.Context, ownerID, fileName string, r io.Reader) (Object, error)
	// Put writes r at an exact key, replacing any existing object.
	Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Object describes a stored upload.
type Object struct {
	Key         string
	SizeBytes   int64
	ContentType string
}

const sniffLen = 512

// NewKey builds "<hashed owner>/<uuid>_<file name>".
func NewKey(ownerID, fileName string) (string, error) {
	name, err := SanitizeFileName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join(OwnerKey(ownerID), uuid.NewString()+"_"+name), nil
}

// OwnerKey returns a path-safe identifier for an owner ID.
func OwnerKey(ownerID string) string {
	sum := sha256.Sum256([]byte(ownerID))
	return hex.EncodeToString(sum[:])
}

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.NewReplacer("/", "_", "\\", "_").Replace(s)
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// Sniff detects the content type of r and returns a reader replaying the consumed prefix.
func Sniff(r io.Reader) (string, io.Reader, error) {
	var head [sniffLen]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read sniff: %w", err)
	}
	prefix := append([]byte(nil), head[:n]...)
	return http.DetectContentType(prefix), io.MultiReader(bytes.NewReader(prefix), r), nil
}
