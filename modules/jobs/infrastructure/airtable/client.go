package airtable

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
	"github.com/sirupsen/logrus"
)

// MaxRecordsPerRequest is the hosted store's write ceiling per call.
const MaxRecordsPerRequest = 10

// APIError is a non-2xx answer from the REST API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("airtable: status=%d type=%s", e.StatusCode, e.Type)
	}
	return fmt.Sprintf("airtable: status=%d type=%s: %s", e.StatusCode, e.Type, e.Message)
}

// The API answers with either {"error":"NOT_FOUND"} or {"error":{"type":..,"message":..}}.
type errorBody struct {
	Error json.RawMessage `json:"error"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Error) == 0 {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}
	var kind string
	if err := json.Unmarshal(eb.Error, &kind); err == nil {
		apiErr.Type = kind
		return apiErr
	}
	var detail errorDetail
	if err := json.Unmarshal(eb.Error, &detail); err == nil {
		apiErr.Type = detail.Type
		apiErr.Message = detail.Message
	}
	return apiErr
}

type Options struct {
	APIURL   string
	APIKey   string
	BaseID   string
	Table    string
	Timeout  time.Duration
	Typecast bool
}

// Client talks to one table of one base.
type Client struct {
	tableURL   *url.URL
	apiKey     string
	typecast   bool
	httpClient *http.Client
	log        *logrus.Logger
}

func NewClient(opts Options, log *logrus.Logger) (*Client, error) {
	raw := strings.TrimSpace(opts.APIURL)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid airtable api url: %q", raw)
	}
	if strings.TrimSpace(opts.APIKey) == "" || strings.TrimSpace(opts.BaseID) == "" {
		return nil, errors.New("airtable api key and base id are required")
	}
	table := opts.Table
	if table == "" {
		table = "Jobs"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + url.PathEscape(opts.BaseID) + "/" + url.PathEscape(table)
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		tableURL:   u,
		apiKey:     opts.APIKey,
		typecast:   opts.Typecast,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}, nil
}

func (c *Client) doJSON(ctx context.Context, method, recordID string, query url.Values, reqBody any, out any) error {
	u := *c.tableURL
	if recordID != "" {
		u.Path += "/" + url.PathEscape(recordID)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return errors.Wrap(err, "json marshal request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return errors.Wrap(err, "http request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "http do")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "http read")
	}
	c.log.WithFields(logrus.Fields{
		"method":   method,
		"path":     u.Path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("airtable request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Wrap(err, "json unmarshal response")
	}
	return nil
}
