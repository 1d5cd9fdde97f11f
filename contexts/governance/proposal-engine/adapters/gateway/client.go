package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
	"arcane/internal/platform/webclient"
)

const gatewayStatusPath = "/status/gateway-status"

// Client reads ledger state from the network gateway API.
type Client struct {
	BaseURL      string
	HTTPClient   *http.Client
	Attempts     int
	InitialDelay time.Duration
}

type gatewayStatusResponse struct {
	LedgerState struct {
		Network      string `json:"network"`
		StateVersion int64  `json:"state_version"`
		Epoch        int64  `json:"epoch"`
		Round        int64  `json:"round"`
	} `json:"ledger_state"`
}

// CurrentEpoch returns the epoch of the gateway's latest ledger state.
func (c Client) CurrentEpoch(ctx context.Context) (int64, error) {
	url := strings.TrimRight(c.BaseURL, "/") + gatewayStatusPath
	attempts := c.Attempts
	if attempts <= 0 {
		attempts = 3
	}

	status, body, err := webclient.DoWithRetry(ctx, attempts, c.InitialDelay, func() (int, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte("{}")))
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.client().Do(req)
		if err != nil {
			return 0, nil, err
		}
		defer resp.Body.Close()
		payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return resp.StatusCode, payload, err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domainerrors.ErrEpochUnavailable, err)
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("%w: gateway returned status %d", domainerrors.ErrEpochUnavailable, status)
	}

	var decoded gatewayStatusResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return 0, fmt.Errorf("%w: decode gateway status: %w", domainerrors.ErrEpochUnavailable, err)
	}
	if decoded.LedgerState.Epoch <= 0 {
		return 0, fmt.Errorf("%w: gateway reported no epoch", domainerrors.ErrEpochUnavailable)
	}
	return decoded.LedgerState.Epoch, nil
}

func (c Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}
