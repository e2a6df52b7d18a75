// Package atlasclient is the single gateway for all control-plane HTTP I/O:
// digest authentication, a process-global rolling-window rate limiter,
// pagination, and the error taxonomy every caller in the daemon consumes.
package atlasclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/atlasfleet/autoscaler/pkg/log"
	"github.com/atlasfleet/autoscaler/pkg/metrics"
	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog"
)

const (
	// AcceptV2 is the default Accept media type for the v2 API surface.
	AcceptV2 = "application/vnd.atlas.2025-03-12+json"
	// AcceptV1 is the Accept media type for the v1.0 disk-measurement surface.
	AcceptV1 = "application/json"

	defaultRequestTimeout = 60 * time.Second
	slowResponseThreshold = time.Second

	// maxAttempts is one initial try plus a single retry, per spec.md §7's
	// RateLimited/TransportError/ServerError taxonomy entries.
	maxAttempts  = 2
	retryBackoff = 500 * time.Millisecond
)

// Client is the authenticated REST gateway. One Client is shared
// process-wide; its rate limiter and connection pool are both
// process-global by design.
type Client struct {
	baseURLV2  string
	baseURLV1  string
	publicKey  string
	privateKey string

	httpClient *http.Client
	limiter    *rateLimiter
	logger     zerolog.Logger
}

// Config configures a new Client.
type Config struct {
	BaseURLV2  string // e.g. https://cloud.mongodb.com/api/atlas/v2
	BaseURLV1  string // e.g. https://cloud.mongodb.com/api/atlas/v1.0
	PublicKey  string
	PrivateKey string
}

// New constructs a Client with a pooled, keep-alive transport shared across
// every request the daemon issues.
func New(cfg Config) *Client {
	return &Client{
		baseURLV2:  cfg.BaseURLV2,
		baseURLV1:  cfg.BaseURLV1,
		publicKey:  cfg.PublicKey,
		privateKey: cfg.PrivateKey,
		httpClient: &http.Client{
			Transport: cleanhttp.DefaultPooledTransport(),
			Timeout:   defaultRequestTimeout,
		},
		limiter: newRateLimiter(),
		logger:  log.WithComponent("atlasclient"),
	}
}

// request issues method against path with an optional JSON body, resolving
// auth, rate limiting and error taxonomy translation. base selects which
// versioned root the path is relative to.
//
// A 429, 5xx, or transport-level failure on the first attempt is retried
// once after a fixed backoff (spec.md §7). A persistent 429 surfaces to the
// caller as a TransportError wrapping the RateLimitedError, since the base
// client has already exhausted its one retry and the caller treats both
// exhaustion modes the same way (skip this cluster this tick). A persistent
// 5xx or transport failure keeps its own type.
func (c *Client) request(ctx context.Context, method, base, path string, body any, acceptMediaType string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var bodyBytes []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
		bodyBytes = encoded
	}

	url := base + path
	endpoint := endpointPrefix(path)

	for attempt := 1; ; attempt++ {
		timer := metrics.NewTimer()
		resp, err := c.doWithDigest(ctx, method, url, bodyBytes, acceptMediaType)

		status := "error"
		if resp != nil {
			status = fmt.Sprintf("%d", resp.StatusCode)
		}
		metrics.HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
		timer.ObserveDurationVec(metrics.HTTPRequestDuration, endpoint)

		if d := timer.Duration(); d > slowResponseThreshold {
			c.logger.Debug().
				Str("path", path).
				Str("request_id", uuid.New().String()).
				Dur("duration", d).
				Msg("slow control-plane response")
		}

		if err != nil {
			if attempt < maxAttempts {
				if werr := c.sleepBackoff(ctx); werr != nil {
					return nil, &TransportError{Path: path, Err: werr}
				}
				continue
			}
			return nil, &TransportError{Path: path, Err: err}
		}

		classified := classifyStatus(resp, path)
		if classified == nil {
			return resp, nil
		}

		if attempt < maxAttempts && isRetryableStatus(resp.StatusCode) {
			resp.Body.Close()
			if werr := c.sleepBackoff(ctx); werr != nil {
				return nil, &TransportError{Path: path, Err: werr}
			}
			continue
		}

		if rateLimited, ok := classified.(*RateLimitedError); ok {
			return resp, &TransportError{Path: path, Err: rateLimited}
		}
		return resp, classified
	}
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// sleepBackoff waits out a fixed backoff before the single retry, honoring
// ctx cancellation the same way the rate limiter's admission wait does.
func (c *Client) sleepBackoff(ctx context.Context) error {
	sleepTimer := time.NewTimer(retryBackoff)
	select {
	case <-sleepTimer.C:
		return nil
	case <-ctx.Done():
		sleepTimer.Stop()
		return ctx.Err()
	}
}

// doWithDigest performs the request, retrying once after a 401 with the
// digest challenge's computed Authorization header.
func (c *Client) doWithDigest(ctx context.Context, method, url string, bodyBytes []byte, acceptMediaType string) (*http.Response, error) {
	newReq := func() (*http.Request, error) {
		var r io.Reader
		if bodyBytes != nil {
			r = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, r)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", acceptMediaType)
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}

	req, err := newReq()
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	challenge, ok := extractChallenge(resp)
	resp.Body.Close()
	if !ok {
		return resp, nil
	}

	req2, err := newReq()
	if err != nil {
		return nil, err
	}
	req2.Header.Set("Authorization", buildDigestAuthorization(c.publicKey, c.privateKey, method, req2.URL.RequestURI(), challenge))
	return c.httpClient.Do(req2)
}

func classifyStatus(resp *http.Response, path string) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{StatusCode: resp.StatusCode, Path: path}
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{Path: path}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitedError{Path: path, RetryAfter: resp.Header.Get("Retry-After")}
	case resp.StatusCode >= 500:
		return &ServerError{StatusCode: resp.StatusCode, Path: path}
	case resp.StatusCode >= 400:
		return fmt.Errorf("atlasclient: unexpected status %d on %s", resp.StatusCode, path)
	}
	return nil
}

// getJSON issues a GET and decodes the JSON response body into v.
func (c *Client) getJSON(ctx context.Context, base, path, acceptMediaType string, v any) error {
	resp, err := c.request(ctx, http.MethodGet, base, path, nil, acceptMediaType)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}

// patchJSON issues a PATCH with a JSON body and decodes the response.
func (c *Client) patchJSON(ctx context.Context, base, path string, body any, acceptMediaType string, v any) error {
	resp, err := c.request(ctx, http.MethodPatch, base, path, body, acceptMediaType)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}

func endpointPrefix(path string) string {
	for i := 1; i < len(path); i++ {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return path
}
