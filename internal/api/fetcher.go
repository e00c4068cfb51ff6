package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultPageSize matches the page size the paginated feed requests
	DefaultPageSize = 20

	// MaxPageSize is the largest page the catalog serves
	MaxPageSize = 100

	// DefaultTimeout bounds a single catalog request
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 10 << 20
)

// HTTPDoer is the subset of *http.Client the fetcher needs (allows mocking in tests)
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetcherOptions configures a Fetcher
type FetcherOptions struct {
	// HTTPClient overrides the default client (which uses Timeout)
	HTTPClient HTTPDoer

	// Timeout applies to the default client. Zero selects DefaultTimeout.
	Timeout time.Duration

	// TimeUnit is the unit the endpoint expects for the max-time bound
	TimeUnit EffortUnit

	// UserAgent is sent with every request when set
	UserAgent string

	// Logger receives request-level debug logs. Nil disables logging.
	Logger *zerolog.Logger
}

// Fetcher reads the paginated issue catalog. It never retries; see WithRetry.
type Fetcher struct {
	baseURL   *url.URL
	http      HTTPDoer
	unit      EffortUnit
	userAgent string
	log       zerolog.Logger
}

// NewFetcher creates a Fetcher for the catalog rooted at baseURL
// (e.g. http://localhost:8080/api)
func NewFetcher(baseURL string, opts FetcherOptions) (*Fetcher, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid catalog URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid catalog URL %q: scheme must be http or https", baseURL)
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	unit := opts.TimeUnit
	if unit == "" {
		unit = UnitMinutes
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return &Fetcher{
		baseURL:   u,
		http:      client,
		unit:      unit,
		userAgent: opts.UserAgent,
		log:       log,
	}, nil
}

// FetchPage requests one page of issues matching filters.
// Only non-empty filter fields are sent.
func (f *Fetcher) FetchPage(ctx context.Context, filters IssueFilters, page, size int) (*Page, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}

	var wp wirePage
	if err := f.do(ctx, "fetch issues", http.MethodGet, "issues", f.issuesQuery(filters, page, size), &wp); err != nil {
		return nil, err
	}
	return wp.toPage(), nil
}

// issuesQuery encodes the request parameters for FetchPage
func (f *Fetcher) issuesQuery(filters IssueFilters, page, size int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	if len(filters.Difficulties) > 0 {
		q.Set("difficulty", strings.Join(filters.Difficulties, ","))
	}
	if len(filters.Languages) > 0 {
		q.Set("language", strings.Join(filters.Languages, ","))
	}
	if filters.MaxMinutes != nil {
		q.Set("maxHours", strconv.FormatFloat(f.unit.FromMinutes(*filters.MaxMinutes), 'f', -1, 64))
	}
	return q
}

// Stats returns the catalog summary
func (f *Fetcher) Stats(ctx context.Context) (*Stats, error) {
	var ws wireStats
	if err := f.do(ctx, "fetch stats", http.MethodGet, "issues/stats", nil, &ws); err != nil {
		return nil, err
	}
	return ws.toStats(), nil
}

// Languages returns the languages the catalog knows about
func (f *Fetcher) Languages(ctx context.Context) ([]string, error) {
	var langs []string
	if err := f.do(ctx, "fetch languages", http.MethodGet, "languages", nil, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

// Health returns the catalog's reported status (e.g. "UP")
func (f *Fetcher) Health(ctx context.Context) (string, error) {
	var body struct {
		Status string `json:"status"`
	}
	if err := f.do(ctx, "check health", http.MethodGet, "health", nil, &body); err != nil {
		return "", err
	}
	return body.Status, nil
}

// Refresh asks the catalog to re-import issues and returns its message
func (f *Fetcher) Refresh(ctx context.Context) (string, error) {
	var body struct {
		Message string `json:"message"`
	}
	if err := f.do(ctx, "refresh issues", http.MethodPost, "issues/refresh", nil, &body); err != nil {
		return "", err
	}
	return body.Message, nil
}

// do performs one request and decodes a JSON response into out
func (f *Fetcher) do(ctx context.Context, op, method, path string, query url.Values, out interface{}) error {
	u := f.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.http.Do(req)
	if err != nil {
		f.log.Debug().Err(err).Str("method", method).Str("url", u.String()).Msg("catalog request failed")
		return &NetworkError{Operation: op, URL: u.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &NetworkError{Operation: op, URL: u.String(), Err: err}
	}

	f.log.Debug().
		Str("method", method).
		Str("url", u.String()).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("catalog request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    serverMessage(body),
			Body:       body,
			RetryAfter: resp.Header.Get("Retry-After"),
		}
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ServerError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("invalid response body: %v", err),
			Body:       body,
		}
	}
	return nil
}

// serverMessage extracts a human message from common error payloads:
// {"message": "..."}, {"error": "..."} and {"error": {"message": "..."}}
func serverMessage(body []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	if len(payload.Error) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Error, &s); err == nil {
		return s
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload.Error, &nested); err == nil {
		return nested.Message
	}
	return ""
}
