package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/api-sage/retail-bank-ledger/internal/domain"
)

// Client fetches signed credit ratings from the external oracle service.
// Transient failures are retried with backoff before surfacing an error.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

func NewClient(baseURL string) *Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.RetryWaitMin = 200 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	c.HTTPClient.Timeout = 5 * time.Second
	c.Logger = nil

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: c,
	}
}

// GetCreditRating requests the oracle's signed rating for the customer.
func (c *Client) GetCreditRating(ctx context.Context, customerID uuid.UUID) (*SignedCreditRating, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("oracle client not configured")
	}

	url := fmt.Sprintf("%s/api/rating/%s", c.baseURL, customerID)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create oracle request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request credit rating: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("credit rating for customer %s: %w", customerID, domain.ErrRecordNotFound)
	default:
		return nil, fmt.Errorf("oracle returned unexpected status %d", resp.StatusCode)
	}

	var rating SignedCreditRating
	if err := json.NewDecoder(resp.Body).Decode(&rating); err != nil {
		return nil, fmt.Errorf("decode credit rating response: %w", err)
	}
	return &rating, nil
}
