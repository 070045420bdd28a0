package relationship

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Client fetches a user's relationship snapshot from the upstream service.
type Client interface {
	Relationship(ctx context.Context, username string) (Snapshot, error)
}

// Observer receives the outcome of each upstream call. Implemented by
// observability.RelationshipObserver; nil disables instrumentation.
type Observer interface {
	Observe(outcome string, elapsed time.Duration)
}

// envelope is the upstream response wrapper. A non-zero code is an
// application-level failure even on HTTP 200.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// HTTPClient talks to the Star Access HTTP API.
type HTTPClient struct {
	baseURL  string
	client   *http.Client
	log      *logrus.Logger
	observer Observer
}

// NewHTTPClient creates a client for the service at baseURL. The timeout
// bounds each request end to end.
func NewHTTPClient(baseURL string, timeout time.Duration, log *logrus.Logger) *HTTPClient {
	if log == nil {
		log = logrus.New()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// WithObserver attaches call instrumentation.
func (c *HTTPClient) WithObserver(observer Observer) *HTTPClient {
	c.observer = observer
	return c
}

func (c *HTTPClient) observe(outcome string, started time.Time) {
	if c.observer != nil {
		c.observer.Observe(outcome, time.Since(started))
	}
}

// Relationship fetches the snapshot for username. Any transport failure,
// non-2xx status or non-zero envelope code is returned as an error; callers
// resolving permissions treat that as "no snapshot" and keep going.
func (c *HTTPClient) Relationship(ctx context.Context, username string) (Snapshot, error) {
	endpoint := fmt.Sprintf("%s/api/users/%s/relationship", c.baseURL, url.PathEscape(username))
	started := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.observe("error", started)
		return nil, fmt.Errorf("relationship: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.observe("error", started)
		return nil, fmt.Errorf("relationship: request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.observe("error", started)
		return nil, fmt.Errorf("relationship: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.observe("error", started)
		return nil, fmt.Errorf("relationship: %s returned status %d", endpoint, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.observe("error", started)
		return nil, fmt.Errorf("relationship: decode response: %w", err)
	}
	if env.Code != 0 {
		c.observe("rejected", started)
		return nil, fmt.Errorf("relationship: upstream code %d: %s", env.Code, env.Msg)
	}

	var snapshot Snapshot
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &snapshot); err != nil {
			c.observe("error", started)
			return nil, fmt.Errorf("relationship: decode snapshot: %w", err)
		}
	}

	c.observe("ok", started)
	return snapshot, nil
}
