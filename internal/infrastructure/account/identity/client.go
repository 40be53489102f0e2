// Package identity resolves bearer tokens through the identity provider's
// introspection endpoint.
package identity

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
	"github.com/riskibarqy/plus-predictor/internal/platform/resilience"
	"github.com/riskibarqy/plus-predictor/internal/usecase"
)

const (
	maxResponseBody    = 1 << 20
	maxCachedEntries   = 10000
	defaultHTTPTimeout = 3 * time.Second
)

var errIdentityTransient = crerr.New("identity provider transient failure")

type Config struct {
	BaseURL        string
	IntrospectPath string
	Timeout        time.Duration
	CacheTTL       time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
	Logger         *logging.Logger
	// HTTPClient overrides the instrumented default client.
	HTTPClient *http.Client
}

type Client struct {
	httpClient    *http.Client
	introspectURL string
	breaker       *resilience.CircuitBreaker
	cache         *principalCache
	logger        *logging.Logger
}

func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Client{
		httpClient:    httpClient,
		introspectURL: buildURL(cfg.BaseURL, cfg.IntrospectPath),
		breaker:       resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker),
		cache:         newPrincipalCache(cfg.CacheTTL, maxCachedEntries),
		logger:        logger,
	}
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (usecase.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return usecase.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	key := hashToken(token)
	if principal, ok := c.cache.Get(key); ok {
		return principal, nil
	}

	var principal usecase.Principal
	err := c.breaker.Execute(func() error {
		var callErr error
		principal, callErr = c.introspect(ctx, token)
		return callErr
	}, isCircuitFailure)
	if err != nil {
		if crerr.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "identity circuit breaker rejected request", "state", c.breaker.State())
			return usecase.Principal{}, fmt.Errorf("%w: identity provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
		if crerr.Is(err, errIdentityTransient) {
			return usecase.Principal{}, fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
		}
		return usecase.Principal{}, err
	}

	c.cache.Set(key, principal)
	return principal, nil
}

func (c *Client) introspect(ctx context.Context, token string) (usecase.Principal, error) {
	encoded, err := sonic.Marshal(introspectRequest{Token: token})
	if err != nil {
		return usecase.Principal{}, crerr.Wrap(err, "marshal introspect request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, bytes.NewReader(encoded))
	if err != nil {
		return usecase.Principal{}, crerr.Wrap(err, "create introspect request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return usecase.Principal{}, fmt.Errorf("%w: request introspection: %v", errIdentityTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return usecase.Principal{}, fmt.Errorf("%w: read introspect response: %v", errIdentityTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return usecase.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	case resp.StatusCode == http.StatusForbidden:
		// The provider refused our own credentials, not the user's token.
		c.logger.WarnContext(ctx, "identity introspection forbidden", "status_code", resp.StatusCode)
		return usecase.Principal{}, fmt.Errorf("%w: identity introspection forbidden", usecase.ErrDependencyUnavailable)
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		c.logger.WarnContext(ctx, "identity introspection unavailable", "status_code", resp.StatusCode)
		return usecase.Principal{}, fmt.Errorf("%w: status=%d", errIdentityTransient, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		c.logger.WarnContext(ctx, "identity introspection non-200", "status_code", resp.StatusCode)
		return usecase.Principal{}, crerr.Newf("identity introspection failed with status %d", resp.StatusCode)
	}

	var decoded introspectResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return usecase.Principal{}, crerr.Wrap(err, "unmarshal introspect response")
	}
	if !decoded.Active {
		return usecase.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(decoded.UserID) == "" {
		return usecase.Principal{}, crerr.New("invalid introspect response: user_id is empty")
	}

	return usecase.Principal{
		UserID: decoded.UserID,
		Email:  decoded.Email,
		Name:   decoded.Name,
	}, nil
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active bool   `json:"active"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}
