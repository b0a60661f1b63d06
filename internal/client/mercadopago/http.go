package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tiendafresca/backend/internal/apperr"
)

// core is the HTTP plumbing shared by the capability clients: one client
// with a hard 5s timeout, bearer auth, no internal retries. Retrying is the
// gateway's job via its idempotency keys and webhook redelivery.
type core struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	log         *zap.SugaredLogger
}

func newCore(baseURL, accessToken string, log *zap.SugaredLogger) *core {
	return &core{
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		log:         log,
	}
}

func (c *core) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}, idempotencyKey string) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request payload: %w", err)
		}
		reqBody = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.GatewayUnavailable, "payment gateway unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return c.classify(resp.StatusCode, raw, method, path)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode gateway response: %w", err)
		}
	}
	return nil
}
