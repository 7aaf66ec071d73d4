package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/siherrmann/eventgraph/helper"
	"github.com/siherrmann/eventgraph/model"
)

// LookupFunctions defines the interface for the external name enrichment
// lookup. A nil result with a nil error means the service knows nothing
// about the name.
type LookupFunctions interface {
	Search(ctx context.Context, name string) (*model.Enrichment, error)
}

// Client looks up names against an enrichment HTTP service. The service
// answers GET {baseURL}/search?name=... with an enrichment document, or
// 404 when the name is unknown.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a new enrichment lookup client
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: logger,
	}
}

// Search looks up a single name. Transient failures (network errors and
// 5xx responses) are retried with capped exponential backoff; a name the
// service does not know yields nil without error.
func (c *Client) Search(ctx context.Context, name string) (*model.Enrichment, error) {
	requestURL := fmt.Sprintf("%v/search?name=%v", c.baseURL, url.QueryEscape(name))

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)

	var enrichment *model.Enrichment
	operation := func() error {
		result, err := c.search(ctx, requestURL)
		if err != nil {
			return err
		}
		enrichment = result
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, helper.NewError("enrichment lookup", err)
	}

	return enrichment, nil
}

func (c *Client) search(ctx context.Context, requestURL string) (*model.Enrichment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("enrichment service returned status %v", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("enrichment service returned status %v", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}

	enrichment := &model.Enrichment{}
	if err := json.Unmarshal(body, enrichment); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("invalid enrichment response: %w", err))
	}

	// An empty document carries no usable data
	if enrichment.ID == "" && enrichment.Category == "" && enrichment.Description == "" {
		return nil, nil
	}

	return enrichment, nil
}
