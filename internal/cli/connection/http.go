package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/portmesh-go/internal/core/domain"
	"github.com/yndnr/portmesh-go/internal/infra/buildinfo"
)

// DefaultTimeout bounds every admin request.
const DefaultTimeout = 10 * time.Second

// HTTPClient talks to the admin HTTP server.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client for server, a host:port or URL.
func NewHTTPClient(server string) *HTTPClient {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "portmesh-cli/"+buildinfo.Version)
	req.Header.Set("Accept", "application/json")
	return c.client.Do(req)
}

// ListenerReport is the /listeners payload.
type ListenerReport struct {
	Total     int                    `json:"total" yaml:"total"`
	Listening int                    `json:"listening" yaml:"listening"`
	Listeners []domain.ListenerState `json:"listeners" yaml:"listeners"`
}

// Listeners fetches the listener snapshot.
func (c *HTTPClient) Listeners(ctx context.Context) (*ListenerReport, error) {
	resp, err := c.Get(ctx, "/listeners")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	var report ListenerReport
	if err := ParseResponse(resp, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Ready reports whether the server has at least one listening port.
func (c *HTTPClient) Ready(ctx context.Context) (bool, error) {
	resp, err := c.Get(ctx, "/ready")
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode == http.StatusServiceUnavailable {
		resp.Body.Close()
		return false, nil
	}
	if err := ParseResponse(resp, nil); err != nil {
		return false, err
	}
	return true, nil
}

// ParseResponse decodes the data field of an admin envelope into target.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	var env struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode >= 400 {
		if decodeErr == nil && env.Message != "" {
			return fmt.Errorf("[%s] %s", env.Code, env.Message)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	if target == nil {
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("parse response: %w", decodeErr)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("parse response: empty data")
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
