package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stakevault-io/staking-pool-service/internal/observability/metrics"
)

// HttpClient is implemented by service clients that delegate transport
// concerns (URL building, timeouts, metrics) to SendRequest.
type HttpClient interface {
	GetBaseURL() string
	GetDefaultRequestTimeout() time.Duration
	GetHttpClient() *http.Client
}

// HttpClientOptions carries per-request options. TemplatePath is the
// unexpanded route used as the metrics label so path parameters don't
// blow up label cardinality.
type HttpClientOptions struct {
	Path         string
	TemplatePath string
	Headers      map[string]string
}

// ErrorResponse is returned for non-2xx responses so that callers can map
// the remote error payload onto their own error taxonomy.
type ErrorResponse struct {
	StatusCode int
	Body       []byte
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// SendRequest sends a JSON request to the client's service and decodes the
// JSON response into O. A nil input sends no body.
func SendRequest[I any, O any](
	ctx context.Context,
	c HttpClient,
	method string,
	opts *HttpClientOptions,
	input *I,
) (*O, error) {
	url := c.GetBaseURL() + opts.Path

	var body io.Reader
	if input != nil {
		payload, err := json.Marshal(input)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	ctx, cancel := context.WithTimeout(ctx, c.GetDefaultRequestTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	timer := metrics.StartClientRequestDurationTimer(c.GetBaseURL(), method, opts.TemplatePath)

	resp, err := c.GetHttpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	timer(resp.StatusCode)

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limit exceeded when calling %s", url)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &ErrorResponse{
			StatusCode: resp.StatusCode,
			Body:       respBody,
		}
	}

	var out O
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", url, err)
	}

	return &out, nil
}
