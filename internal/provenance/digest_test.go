package provenance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/open-verix/integrity/internal/storage"
)

func TestDigest(t *testing.T) {
	dir := t.TempDir()
	blob := []byte(`{"attestation_bundles": []}`)
	if err := os.WriteFile(filepath.Join(dir, "pkg-1.0.0.tar.gz.provenance"), blob, 0o644); err != nil {
		t.Fatalf("failed to seed blob: %v", err)
	}
	sum := sha256.Sum256(blob)
	wantDigest := hex.EncodeToString(sum[:])

	reader := NewDigestReader(storage.NewFSStore(dir))

	tests := []struct {
		name    string
		file    *File
		want    string
		wantErr bool
	}{
		{
			name: "file with provenance",
			file: &File{
				Path:         "pkg-1.0.0.tar.gz",
				PublisherURL: "https://github.com/acme/pkg",
				Attestations: []string{"deadbeef"},
			},
			want: wantDigest,
		},
		{
			name: "no attestations",
			file: &File{
				Path:         "pkg-1.0.0.tar.gz",
				PublisherURL: "https://github.com/acme/pkg",
			},
			want: "",
		},
		{
			name: "no publisher URL",
			file: &File{
				Path:         "pkg-1.0.0.tar.gz",
				Attestations: []string{"deadbeef"},
			},
			want: "",
		},
		{
			name: "nil file",
			file: nil,
			want: "",
		},
		{
			name: "blob missing",
			file: &File{
				Path:         "pkg-2.0.0.tar.gz",
				PublisherURL: "https://github.com/acme/pkg",
				Attestations: []string{"deadbeef"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reader.Digest(context.Background(), tt.file)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Digest() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Digest() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Digest() = %q, want %q", got, tt.want)
			}
			if got != "" && len(got) != 64 {
				t.Errorf("Digest() length = %d, want 64 hex characters", len(got))
			}
		})
	}
}
