package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"arcane/contexts/governance/proposal-engine/domain/entities"
	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
	"arcane/internal/platform/webclient"
)

const (
	defaultAttempts     = 3
	defaultInitialDelay = 500 * time.Millisecond
	maxDocumentBytes    = 1 << 20
)

// IPFSResolver fetches proposal documents from an IPFS HTTP gateway.
type IPFSResolver struct {
	BaseURL      string
	APIKey       string
	Client       *http.Client
	Attempts     int
	InitialDelay time.Duration
	Logger       *slog.Logger
}

// ipfsDocument is the JSON pinned for each proposal. endEpoch is written
// both as a number and as a string by existing clients.
type ipfsDocument struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Picture     string      `json:"picture"`
	CreatedBy   string      `json:"createdBy"`
	EndEpoch    epochOffset `json:"endEpoch"`
}

type epochOffset int64

func (o *epochOffset) UnmarshalJSON(raw []byte) error {
	text := strings.Trim(string(bytes.TrimSpace(raw)), `"`)
	if text == "" || text == "null" {
		*o = 0
		return nil
	}
	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return fmt.Errorf("endEpoch %q: %w", text, err)
	}
	*o = epochOffset(value)
	return nil
}

func (r IPFSResolver) Resolve(ctx context.Context, ref string) (entities.ProposalMetadata, error) {
	ref = strings.Trim(strings.TrimSpace(ref), "/")
	if ref == "" {
		return entities.ProposalMetadata{}, fmt.Errorf("%w: empty reference", domainerrors.ErrMetadataUnavailable)
	}
	url := strings.TrimRight(r.BaseURL, "/") + "/" + ref

	status, body, err := webclient.DoWithRetry(ctx, r.attempts(), r.initialDelay(), func() (int, []byte, error) {
		return r.fetch(ctx, url)
	})
	if err != nil {
		r.logFailure(ref, err)
		return entities.ProposalMetadata{}, fmt.Errorf("%w: %w", domainerrors.ErrMetadataUnavailable, err)
	}
	if status != http.StatusOK {
		err := fmt.Errorf("ipfs gateway returned status %d", status)
		r.logFailure(ref, err)
		return entities.ProposalMetadata{}, fmt.Errorf("%w: %w", domainerrors.ErrMetadataUnavailable, err)
	}

	var document ipfsDocument
	if err := json.Unmarshal(body, &document); err != nil {
		r.logFailure(ref, err)
		return entities.ProposalMetadata{}, fmt.Errorf("%w: decode document: %w", domainerrors.ErrMetadataUnavailable, err)
	}
	return entities.ProposalMetadata{
		Title:          document.Title,
		Description:    document.Description,
		Picture:        document.Picture,
		CreatedBy:      document.CreatedBy,
		EndEpochOffset: int64(document.EndEpoch),
	}, nil
}

func (r IPFSResolver) fetch(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if r.APIKey != "" {
		req.Header.Set("X-Api-Key", r.APIKey)
	}
	resp, err := r.client().Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

func (r IPFSResolver) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (r IPFSResolver) attempts() int {
	if r.Attempts <= 0 {
		return defaultAttempts
	}
	return r.Attempts
}

func (r IPFSResolver) initialDelay() time.Duration {
	if r.InitialDelay <= 0 {
		return defaultInitialDelay
	}
	return r.InitialDelay
}

func (r IPFSResolver) logFailure(ref string, err error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("ipfs metadata fetch failed",
		"event", "governance_metadata_fetch_failed",
		"module", "governance/proposal-engine",
		"layer", "adapter",
		"metadata_ref", ref,
		"error", err.Error(),
	)
}
