package provenance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/open-verix/integrity/internal/storage"
)

// DigestReader computes the content digest of a file's stored provenance
// blob. It is a pure read path: it never verifies and never re-parses the
// provenance JSON.
type DigestReader struct {
	store storage.Store
}

// NewDigestReader creates a DigestReader over the given blob store.
func NewDigestReader(store storage.Store) *DigestReader {
	return &DigestReader{store: store}
}

// Digest returns the lowercase hex SHA-256 of the file's provenance blob,
// stored at "<file.Path>.provenance". Files without attestations or without
// a publisher URL have no provenance to digest; that is not an error, and
// the result is empty.
func (r *DigestReader) Digest(ctx context.Context, file *File) (string, error) {
	if file == nil || len(file.Attestations) == 0 || file.PublisherURL == "" {
		return "", nil
	}

	blob, err := r.store.Get(ctx, file.Path+".provenance")
	if err != nil {
		return "", fmt.Errorf("failed to fetch provenance blob: %w", err)
	}

	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:]), nil
}
