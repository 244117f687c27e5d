package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tubetab/tubetab/app/cfg"
)

// NewHTTPClient builds the shared HTTP client used by every source. The
// client-level timeout is a safety net; each request also carries its own
// context deadline.
func NewHTTPClient() *http.Client {
	c := cfg.Get()
	return &http.Client{
		Timeout: time.Duration(c.FetchTimeout) * time.Second,
	}
}

func getBody(ctx context.Context, client *http.Client, userAgent, rawURL string, timeout time.Duration) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func getJSON(ctx context.Context, client *http.Client, userAgent, rawURL string, timeout time.Duration, out any) error {
	data, err := getBody(ctx, client, userAgent, rawURL, timeout)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
