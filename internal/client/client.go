// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/models"
)

// maxResponseBytes bounds response bodies, exports included.
const maxResponseBytes = 64 << 20

// Config configures a Client.
type Config struct {
	// BaseURL is the server root, e.g. http://localhost:8080.
	BaseURL string

	// Token is the bearer credential. It may be set later with SetToken
	// or obtained with Login.
	Token string

	// Timeout bounds each HTTP round trip.
	Timeout time.Duration

	// RequestsPerSecond paces outgoing requests. Zero disables pacing.
	RequestsPerSecond float64
	Burst             int

	Breaker BreakerConfig

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// DefaultConfig returns client defaults for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:           baseURL,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 20,
		Burst:             10,
		Breaker:           DefaultBreakerConfig(),
	}
}

// Client calls the forensics REST API. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[*response]

	mu    sync.RWMutex
	token string
}

// response is a buffered HTTP response.
type response struct {
	status int
	header http.Header
	body   []byte
}

// New creates a Client. Zero fields in cfg take their DefaultConfig values.
func New(cfg Config) *Client {
	def := DefaultConfig(cfg.BaseURL)
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = def.Breaker.Name
	}
	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker.FailureThreshold = def.Breaker.FailureThreshold
	}
	if cfg.Breaker.Timeout <= 0 {
		cfg.Breaker.Timeout = def.Breaker.Timeout
	}
	if cfg.Breaker.MaxRequests == 0 {
		cfg.Breaker.MaxRequests = def.Breaker.MaxRequests
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		cb:      newBreaker(cfg.Breaker),
		token:   cfg.Token,
	}
}

// SetToken replaces the bearer credential.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login exchanges development credentials for a token and keeps it.
func (c *Client) Login(ctx context.Context, username, password string) (models.LoginResponse, error) {
	var out models.LoginResponse
	err := c.call(ctx, "login", http.MethodPost, "/api/v1/auth/login", nil,
		models.LoginRequest{Username: username, Password: password}, &out)
	if err != nil {
		return models.LoginResponse{}, err
	}
	c.SetToken(out.Token)
	return out, nil
}

// Search runs a filtered, paginated violation search.
func (c *Client) Search(ctx context.Context, spec models.FilterSpec) (models.PagedResult, error) {
	var out models.PagedResult
	err := c.call(ctx, "search", http.MethodPost, "/api/v1/forensics/search", nil, spec, &out)
	return out, err
}

// GetViolation fetches one violation with redacted evidence.
func (c *Client) GetViolation(ctx context.Context, id string) (*models.Violation, error) {
	var out models.Violation
	if err := c.call(ctx, "get violation", http.MethodGet, violationPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListEvidence lists a violation's evidence with blurred URLs only.
func (c *Client) ListEvidence(ctx context.Context, violationID string) ([]models.Evidence, error) {
	var out []models.Evidence
	err := c.call(ctx, "list evidence", http.MethodGet, violationPath(violationID)+"/evidence", nil, nil, &out)
	return out, err
}

// DownloadEvidence resolves the download URL for one evidence item.
func (c *Client) DownloadEvidence(ctx context.Context, violationID, evidenceID string, revealOriginal bool) (models.DownloadTicket, error) {
	var out models.DownloadTicket
	q := url.Values{"reveal_original": {strconv.FormatBool(revealOriginal)}}
	p := violationPath(violationID) + "/evidence/" + url.PathEscape(evidenceID) + "/download"
	err := c.call(ctx, "download evidence", http.MethodGet, p, q, nil, &out)
	return out, err
}

// AddComment appends a comment to a violation.
func (c *Client) AddComment(ctx context.Context, violationID, content string) (models.Comment, error) {
	var out models.Comment
	err := c.call(ctx, "add comment", http.MethodPost, violationPath(violationID)+"/comments", nil,
		models.CommentRequest{Content: content}, &out)
	return out, err
}

// AcknowledgeComment acknowledges a comment. A repeated acknowledgment
// returns the stored comment together with forensics.ErrAlreadyAcknowledged.
func (c *Client) AcknowledgeComment(ctx context.Context, violationID, commentID string) (models.Comment, error) {
	const op = "acknowledge comment"
	p := violationPath(violationID) + "/comments/" + url.PathEscape(commentID) + "/acknowledge"

	resp, err := c.do(ctx, op, http.MethodPost, p, nil, nil)
	if err != nil {
		return models.Comment{}, err
	}

	var out models.Comment
	if resp.status == http.StatusOK || resp.status == http.StatusConflict {
		if derr := decodeData(op, resp.body, &out); derr != nil && resp.status == http.StatusOK {
			return models.Comment{}, derr
		}
	}
	if resp.status != http.StatusOK {
		return out, decodeError(op, resp)
	}
	return out, nil
}

// MarkFalsePositive flags a violation. The status is left unchanged.
func (c *Client) MarkFalsePositive(ctx context.Context, id, reason string) (*models.Violation, error) {
	return c.transition(ctx, "mark false positive", http.MethodPost, violationPath(id)+"/false-positive",
		models.FalsePositiveRequest{Reason: reason})
}

// UnmarkFalsePositive clears the false positive flag.
func (c *Client) UnmarkFalsePositive(ctx context.Context, id string) (*models.Violation, error) {
	return c.transition(ctx, "unmark false positive", http.MethodDelete, violationPath(id)+"/false-positive", nil)
}

// Resolve marks a violation resolved.
func (c *Client) Resolve(ctx context.Context, id string) (*models.Violation, error) {
	return c.transition(ctx, "resolve", http.MethodPost, violationPath(id)+"/resolve", nil)
}

// Reopen returns a resolved violation to active.
func (c *Client) Reopen(ctx context.Context, id string) (*models.Violation, error) {
	return c.transition(ctx, "reopen", http.MethodPost, violationPath(id)+"/reopen", nil)
}

func (c *Client) transition(ctx context.Context, op, method, path string, body interface{}) (*models.Violation, error) {
	var out models.Violation
	if err := c.call(ctx, op, method, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export downloads the whole filtered result set. It returns the payload
// and its content type.
func (c *Client) Export(ctx context.Context, spec models.FilterSpec, format string) ([]byte, string, error) {
	const op = "export"
	q := url.Values{"format": {format}}
	resp, err := c.do(ctx, op, http.MethodPost, "/api/v1/forensics/export", q, spec)
	if err != nil {
		return nil, "", err
	}
	if resp.status != http.StatusOK {
		return nil, "", decodeError(op, resp)
	}
	return resp.body, resp.header.Get("Content-Type"), nil
}

// DetectionTypes returns the detection type catalog.
func (c *Client) DetectionTypes(ctx context.Context) ([]models.DetectionTypeOption, error) {
	var out []models.DetectionTypeOption
	err := c.call(ctx, "detection types", http.MethodGet, "/api/v1/forensics/detection-types", nil, nil, &out)
	return out, err
}

// Zones returns the zones selectable for siteID. An empty siteID lists all.
func (c *Client) Zones(ctx context.Context, siteID string) ([]models.Zone, error) {
	var q url.Values
	if siteID != "" {
		q = url.Values{"site_id": {siteID}}
	}
	var out []models.Zone
	err := c.call(ctx, "zones", http.MethodGet, "/api/v1/forensics/directory/zones", q, nil, &out)
	return out, err
}

// Summary aggregates violations over the trailing days.
func (c *Client) Summary(ctx context.Context, days int) (models.StatsSummary, error) {
	var out models.StatsSummary
	q := url.Values{"days": {strconv.Itoa(days)}}
	err := c.call(ctx, "summary", http.MethodGet, "/api/v1/forensics/stats/summary", q, nil, &out)
	return out, err
}

// call performs a request and decodes the envelope data into out.
func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	resp, err := c.do(ctx, op, method, path, query, body)
	if err != nil {
		return err
	}
	if resp.status < 200 || resp.status > 299 {
		return decodeError(op, resp)
	}
	if out == nil {
		return nil
	}
	return decodeData(op, resp.body, out)
}

// do paces, sends and buffers one request through the circuit breaker.
// Transport failures and 5xx responses are returned as transient errors;
// other statuses are returned as a response for the caller to map.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body interface{}) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &forensics.TransientNetworkError{Op: op, Err: err}
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
	}

	resp, err := c.cb.Execute(func() (*response, error) {
		return c.roundTrip(ctx, op, method, path, query, payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Ctx(ctx).Debug().Str("op", op).Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, &forensics.TransientNetworkError{Op: op, Err: err}
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, query url.Values, payload []byte) (*response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader = http.NoBody
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &forensics.TransientNetworkError{Op: op, Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &forensics.TransientNetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	resp := &response{status: httpResp.StatusCode, header: httpResp.Header, body: data}
	if resp.status >= http.StatusInternalServerError {
		return nil, &forensics.TransientNetworkError{Op: op, Err: decodeError(op, resp)}
	}
	return resp, nil
}

func decodeData(op string, body []byte, out interface{}) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s: decode data: %w", op, err)
	}
	return nil
}

func violationPath(id string) string {
	return "/api/v1/forensics/violations/" + url.PathEscape(id)
}
