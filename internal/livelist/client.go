package livelist

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

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
)

// APIError is a non-2xx answer from the dashboard API.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("dashboard api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("dashboard api: status %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Client talks to the dashboard JSON API.
type Client struct {
	baseURL         *url.URL
	query           url.Values
	httpClient      *http.Client
	requestIDHeader string
}

type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
	// Filter narrows the polled list; empty fields do not filter.
	Filter          job.FindParams
	RequestIDHeader string
}

func NewClient(opts ClientOptions) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid dashboard url: %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	q := url.Values{}
	for k, v := range map[string]string{
		"date":   opts.Filter.Date,
		"crew":   opts.Filter.Crew,
		"feeder": opts.Filter.Feeder,
		"status": string(opts.Filter.Status),
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return &Client{
		baseURL:         u,
		query:           q,
		httpClient:      &http.Client{Timeout: opts.Timeout},
		requestIDHeader: opts.RequestIDHeader,
	}, nil
}

// ListJobs returns the raw list payload so callers can compare snapshots byte for byte.
func (c *Client) ListJobs(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/api/jobs", c.query, nil)
}

func (c *Client) UpdateStatus(ctx context.Context, id string, status job.Status, completedBy string) error {
	body := map[string]string{"status": string(status)}
	if completedBy != "" {
		body["completedBy"] = completedBy
	}
	_, err := c.do(ctx, http.MethodPatch, "/api/jobs/"+url.PathEscape(id), nil, body)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, reqBody any) ([]byte, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return nil, errors.Wrap(err, "json marshal request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "http request")
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.requestIDHeader != "" {
		req.Header.Set(c.requestIDHeader, uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "http do")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "http read")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(respBody, apiErr)
		return nil, apiErr
	}
	return respBody, nil
}
