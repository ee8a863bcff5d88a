package sigstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TransparencyEntry is the slice of a transparency-log entry the verifier
// inspects. The full entry shape belongs to the log protocol and is carried
// through opaquely.
type TransparencyEntry struct {
	LogIndex       int64           `json:"logIndex"`
	LogID          json.RawMessage `json:"logId,omitempty"`
	IntegratedTime int64           `json:"integratedTime,omitempty"`
	InclusionProof *InclusionProof `json:"inclusionProof,omitempty"`
}

// InclusionProof is a Merkle tree inclusion proof for a log entry.
type InclusionProof struct {
	LogIndex int64    `json:"logIndex"`
	TreeSize int64    `json:"treeSize"`
	RootHash string   `json:"rootHash"`
	Hashes   []string `json:"hashes"`
}

// validate applies the structural checks an inclusion proof must pass before
// it is accepted as evidence of logging.
func (p *InclusionProof) validate() error {
	if p.TreeSize <= 0 {
		return fmt.Errorf("invalid tree size: %d", p.TreeSize)
	}
	if p.RootHash == "" {
		return fmt.Errorf("missing root hash")
	}
	if len(p.Hashes) == 0 {
		return fmt.Errorf("missing proof hashes")
	}
	return nil
}

// RekorClient reads entries from a Rekor transparency log.
type RekorClient struct {
	rekorURL string
	client   *http.Client
}

// NewRekorClient creates a Rekor client for the given base URL.
func NewRekorClient(rekorURL string) *RekorClient {
	if rekorURL == "" {
		rekorURL = "https://rekor.sigstore.dev" // Default public instance
	}
	return &RekorClient{
		rekorURL: rekorURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// EntryByIndex retrieves a log entry by its log index.
func (r *RekorClient) EntryByIndex(ctx context.Context, logIndex int64) (*TransparencyEntry, error) {
	url := fmt.Sprintf("%s/api/v1/log/entries?logIndex=%d", r.rekorURL, logIndex)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get Rekor entry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Rekor returned status %d: %s", resp.StatusCode, string(body))
	}

	// Rekor keys the response map by entry UUID.
	var rekorResp map[string]struct {
		LogIndex       int64 `json:"logIndex"`
		IntegratedTime int64 `json:"integratedTime"`
		Verification   *struct {
			InclusionProof *InclusionProof `json:"inclusionProof,omitempty"`
		} `json:"verification,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rekorResp); err != nil {
		return nil, fmt.Errorf("failed to decode Rekor response: %w", err)
	}

	for _, body := range rekorResp {
		entry := &TransparencyEntry{
			LogIndex:       body.LogIndex,
			IntegratedTime: body.IntegratedTime,
		}
		if body.Verification != nil {
			entry.InclusionProof = body.Verification.InclusionProof
		}
		return entry, nil
	}
	return nil, fmt.Errorf("no entry in Rekor response")
}

// VerifyEntry checks a submitted transparency entry against the log: the
// entry must exist at its claimed index and carry a structurally valid
// inclusion proof.
func (r *RekorClient) VerifyEntry(ctx context.Context, entry *TransparencyEntry) error {
	logged, err := r.EntryByIndex(ctx, entry.LogIndex)
	if err != nil {
		return fmt.Errorf("failed to look up log entry %d: %w", entry.LogIndex, err)
	}

	if logged.InclusionProof == nil {
		return fmt.Errorf("no inclusion proof for log entry %d", entry.LogIndex)
	}
	if err := logged.InclusionProof.validate(); err != nil {
		return fmt.Errorf("invalid inclusion proof for log entry %d: %w", entry.LogIndex, err)
	}
	return nil
}
