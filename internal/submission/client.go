package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/submission-intake/constants"
	"github.com/joseph-ayodele/submission-intake/internal/common"
	"github.com/joseph-ayodele/submission-intake/internal/entity"
	"github.com/joseph-ayodele/submission-intake/internal/metrics"
)

const defaultQuotePath = "/api/v1/quotes"

// EnvConfig holds the endpoints and client credentials of one environment.
type EnvConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Audience     string
}

func (e EnvConfig) complete() bool {
	return e.BaseURL != "" && e.TokenURL != "" && e.ClientID != "" && e.ClientSecret != ""
}

type Config struct {
	Environment  constants.Environment
	Environments map[constants.Environment]EnvConfig
	QuotePath    string
	Timeout      time.Duration
}

// Quote is an approved quote.
type Quote struct {
	ID             string                `json:"quote_id"`
	Status         constants.QuoteStatus `json:"status"`
	CheckoutURL    string                `json:"checkout_link"`
	PolicyTerms    map[string]any        `json:"policy_terms,omitempty"`
	CoverageLimits map[string]any        `json:"coverage_limits,omitempty"`
}

type Decline struct {
	Message string `json:"message"`
}

// Result holds exactly one of Approved or Declined.
type Result struct {
	Approved *Quote
	Declined *Decline
}

// Err returns a *DeclinedError for a declined result, else nil.
func (r *Result) Err() error {
	if r != nil && r.Declined != nil {
		return &DeclinedError{Message: r.Declined.Message}
	}
	return nil
}

// Client submits quote records. Submissions are never retried automatically since a
// duplicate POST can create a duplicate quote.
type Client struct {
	mu         sync.Mutex
	cfg        Config
	env        constants.Environment
	cache      TokenCache
	httpClient *http.Client
	log        *slog.Logger
	now        func() time.Time
}

func NewClient(cfg Config, cache TokenCache, logger *slog.Logger) *Client {
	if cfg.QuotePath == "" {
		cfg.QuotePath = defaultQuotePath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Environment == "" {
		cfg.Environment = constants.EnvTest
	}
	if cache == nil {
		cache = NewMemoryTokenCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		env:        cfg.Environment,
		cache:      cache,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
		now:        time.Now,
	}
}

func (c *Client) Environment() constants.Environment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.env
}

// SetEnvironment switches the target environment and drops the previous environment's token.
func (c *Client) SetEnvironment(ctx context.Context, env constants.Environment) {
	c.mu.Lock()
	prev := c.env
	c.env = env
	c.mu.Unlock()
	if prev == env {
		return
	}
	if err := c.cache.Invalidate(ctx, prev); err != nil {
		c.log.Warn("submission.token.invalidate_failed", "env", prev, "error", err)
	}
	c.log.Info("submission.environment.changed", "from", prev, "to", env)
}

// Submit posts rec to the quote API of the current environment.
// A declined quote is a successful call: check Result.Declined or Result.Err.
func (c *Client) Submit(ctx context.Context, rec *entity.QuoteRecord) (*Result, error) {
	env := c.Environment()
	ec, ok := c.cfg.Environments[env]
	if !ok || !ec.complete() {
		return nil, common.NewAppError("CONFIG", fmt.Sprintf("quote API credentials for %q are not configured", env), common.ErrInvalidInput)
	}
	if err := Validate(rec); err != nil {
		metrics.IncSubmission("invalid")
		return nil, err
	}
	rid := uuid.New().String()
	start := time.Now()

	tok, err := c.token(ctx, env, ec)
	if err != nil {
		metrics.IncSubmission("error")
		return nil, err
	}

	body, err := json.Marshal(BuildPayload(rec))
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	endpoint := strings.TrimRight(ec.BaseURL, "/") + c.cfg.QuotePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build quote request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("X-Request-ID", rid)

	c.log.Info("submission.submit.start", "req_id", rid, "env", env, "content_length", len(body))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncSubmission("error")
		c.log.Error("submission.submit.send_error", "req_id", rid, "error", err)
		return nil, &TransportError{Message: "quote request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncSubmission("error")
		return nil, &TransportError{StatusCode: resp.StatusCode, Message: "read quote response", Cause: err}
	}

	res, err := c.classify(ctx, env, resp.StatusCode, raw)
	outcome := "error"
	switch {
	case err != nil:
	case res.Approved != nil:
		outcome = "approved"
	case res.Declined != nil:
		outcome = "declined"
	}
	metrics.IncSubmission(outcome)
	c.log.Info("submission.submit.done",
		"req_id", rid,
		"status", resp.StatusCode,
		"outcome", outcome,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, err
}

func (c *Client) classify(ctx context.Context, env constants.Environment, status int, raw []byte) (*Result, error) {
	if status == http.StatusUnauthorized {
		if err := c.cache.Invalidate(ctx, env); err != nil {
			c.log.Warn("submission.token.invalidate_failed", "env", env, "error", err)
		}
		return nil, &TransportError{
			StatusCode: status,
			Message:    "quote API rejected the token; it was discarded, submit again",
			Retryable:  true,
			Cause:      common.ErrUnauthorized,
		}
	}

	var wire struct {
		Quote
		Message         string `json:"message"`
		CoverageDetails struct {
			Limits map[string]any `json:"limits"`
		} `json:"coverage_details"`
	}
	decodeErr := json.Unmarshal(raw, &wire)
	statusWord := constants.QuoteStatus(strings.ToUpper(string(wire.Status)))

	if decodeErr == nil && statusWord == constants.QuoteStatusDeclined && (status/100 == 2 || status/100 == 4) {
		return &Result{Declined: &Decline{Message: wire.Message}}, nil
	}
	if status/100 != 2 {
		msg := wire.Message
		if msg == "" {
			msg = "quote API error"
		}
		return nil, &TransportError{StatusCode: status, Message: msg, Retryable: status >= 500}
	}
	if decodeErr != nil {
		return nil, &TransportError{StatusCode: status, Message: "decode quote response", Cause: decodeErr}
	}
	if statusWord != constants.QuoteStatusApproved {
		return nil, &TransportError{StatusCode: status, Message: fmt.Sprintf("unexpected quote status %q", wire.Status)}
	}

	q := wire.Quote
	q.Status = statusWord
	if q.CoverageLimits == nil {
		q.CoverageLimits = wire.CoverageDetails.Limits
	}
	return &Result{Approved: &q}, nil
}

// token returns a cached token for env or exchanges credentials for a new one.
func (c *Client) token(ctx context.Context, env constants.Environment, ec EnvConfig) (Token, error) {
	now := c.now()
	if tok, ok := c.cache.Get(ctx, env); ok && tok.Usable(now) {
		return tok, nil
	}
	c.log.Info("submission.token.refresh", "env", env)
	tok, err := fetchToken(ctx, c.httpClient, ec, now)
	if err != nil {
		c.log.Error("submission.token.refresh_failed", "env", env, "error", err)
		return Token{}, err
	}
	if err := c.cache.Put(ctx, env, tok); err != nil {
		c.log.Warn("submission.token.cache_put_failed", "env", env, "error", err)
	}
	return tok, nil
}
