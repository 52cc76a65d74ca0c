package probe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	namespacesPath = "/v1/namespaces"
	requestTimeout = 5 * time.Second
)

// Prober checks that a schematizer instance answers its namespace
// listing. WaitReady tolerates startup failures; Check does not.
type Prober struct {
	client  *http.Client
	baseURL string
}

func New(baseURL string) *Prober {
	return &Prober{
		client:  &http.Client{Timeout: requestTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// WaitReady polls the namespace listing until it answers with a 2xx,
// pausing delay between attempts. Connection errors and bad statuses
// count as not-ready; the last one is reported when retries run out.
func (p *Prober) WaitReady(ctx context.Context, retries int, delay time.Duration) error {
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if err := p.Check(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("service not ready after %d attempts: %w", retries, lastErr)
}

// Check performs one strict namespace-listing request.
func (p *Prober) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+namespacesPath, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("requesting namespaces: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL)
	}
	return nil
}
