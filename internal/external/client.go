// Package external provides the client of the external posts API.
package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jnst/layered-crud-template/internal/config"
	"github.com/jnst/layered-crud-template/internal/metrics"
	"github.com/jnst/layered-crud-template/internal/model"
)

const (
	retryMultiplier   = 1.5
	maxErrorBodyBytes = 512
)

var (
	// ErrBaseURLRequired is returned when the client is built without a base URL.
	ErrBaseURLRequired = errors.New("external API base URL is required")
	// ErrUnexpectedStatus is returned for upstream statuses with no business mapping.
	ErrUnexpectedStatus = errors.New("unexpected status from external API")
	// ErrAttemptTimeout is returned when one attempt exceeds connect plus read timeout.
	ErrAttemptTimeout = errors.New("external API attempt timed out")
)

// PostClient calls the external posts API.
//
// Only transport failures are retried. Every call is a GET, so a retry never
// repeats a side effect.
type PostClient struct {
	baseURL          *url.URL
	http             *http.Client
	attemptTimeout   time.Duration
	retryInitial     time.Duration
	retryMaxInterval time.Duration
	maxAttempts      int
}

// NewPostClient creates a client with separate connect and read timeouts.
// The read timeout bounds the response headers; one attempt as a whole,
// body included, is bounded by connect plus read timeout.
func NewPostClient(cfg config.ExternalAPIConfig) (*PostClient, error) {
	if cfg.URL == "" {
		return nil, ErrBaseURLRequired
	}

	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid external API URL: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext
	transport.TLSHandshakeTimeout = cfg.ConnectTimeout
	transport.ResponseHeaderTimeout = cfg.ReadTimeout

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &PostClient{
		baseURL:          base,
		http:             &http.Client{Transport: transport},
		attemptTimeout:   cfg.ConnectTimeout + cfg.ReadTimeout,
		retryInitial:     cfg.RetryInitial,
		retryMaxInterval: cfg.RetryMaxInterval,
		maxAttempts:      maxAttempts,
	}, nil
}

// ListPosts returns every post.
func (c *PostClient) ListPosts(ctx context.Context) ([]model.Post, error) {
	var posts []model.Post
	if err := c.get(ctx, "list_posts", "/posts", nil, &posts); err != nil {
		return nil, err
	}

	return posts, nil
}

// GetPost returns one post by id.
func (c *PostClient) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	var post model.Post
	if err := c.get(ctx, "get_post", "/posts/"+strconv.FormatInt(id, 10), nil, &post); err != nil {
		return nil, err
	}

	return &post, nil
}

// ListPostsByUser returns the posts written by a user.
func (c *PostClient) ListPostsByUser(ctx context.Context, userID int64) ([]model.Post, error) {
	query := url.Values{"userId": []string{strconv.FormatInt(userID, 10)}}

	var posts []model.Post
	if err := c.get(ctx, "list_posts_by_user", "/posts", query, &posts); err != nil {
		return nil, err
	}

	return posts, nil
}

func (c *PostClient) get(ctx context.Context, operation, path string, query url.Values, out any) error {
	target := c.baseURL.JoinPath(path)
	target.RawQuery = query.Encode()

	attempt := 0
	op := func() error {
		attempt++
		return c.do(ctx, target.String(), out)
	}

	notify := func(err error, wait time.Duration) {
		metrics.IncExternalRetry(operation)
		slog.Warn("retrying external API call",
			slog.String("operation", operation),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)
	}

	err := backoff.RetryNotify(op, c.retryPolicy(ctx), notify)
	metrics.RecordExternalCall(operation, err)

	if err != nil {
		slog.Error("external API call failed",
			slog.String("operation", operation),
			slog.String("path", target.Path),
			slog.Int("attempts", attempt),
			slog.String("error", err.Error()),
		)

		return err
	}

	return nil
}

func (c *PostClient) retryPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInitial
	b.MaxInterval = c.retryMaxInterval
	b.Multiplier = retryMultiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxAttempts-1)), ctx)
}

// do performs one attempt. Errors that must not be retried are wrapped in
// backoff.Permanent.
func (c *PostClient) do(ctx context.Context, target string, out any) error {
	attemptCtx := ctx
	if c.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.attemptTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		if attemptCtx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrAttemptTimeout, err)
		}

		return fmt.Errorf("external API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return backoff.Permanent(statusError(resp))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		if attemptCtx.Err() != nil {
			return fmt.Errorf("%w: reading response body: %w", ErrAttemptTimeout, err)
		}

		return backoff.Permanent(fmt.Errorf("failed to decode external API response: %w", err))
	}

	return nil
}

// statusError translates an upstream status into a business error.
func statusError(resp *http.Response) error {
	reason := http.StatusText(resp.StatusCode)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return model.NewBusinessError(model.CodeExternalBadRequest, "external API rejected the request: "+reason)
	case http.StatusUnauthorized:
		return model.NewBusinessError(model.CodeExternalUnauthorized, "external API authentication failed")
	case http.StatusForbidden:
		return model.NewBusinessError(model.CodeExternalForbidden, "external API access denied")
	case http.StatusNotFound:
		return model.NewBusinessError(model.CodeExternalNotFound, "requested resource not found in external API")
	case http.StatusRequestTimeout:
		return model.NewBusinessError(model.CodeExternalTimeout, "external API request timed out")
	case http.StatusTooManyRequests:
		return model.NewBusinessError(model.CodeExternalRateLimit, "external API rate limit exceeded, retry later")
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return model.NewBusinessError(model.CodeExternalServerError, "external API server error, retry later")
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, string(body))
	}
}
