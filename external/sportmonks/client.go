// Package sportmonks reads fixture results from the SportMonks football API.
package sportmonks

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
	"github.com/riskibarqy/plus-predictor/internal/platform/resilience"
	"github.com/riskibarqy/plus-predictor/internal/usecase"
)

const (
	defaultBaseURL       = "https://api.sportmonks.com/v3/football"
	defaultTimeout       = 10 * time.Second
	includeFixtureResult = "participants;scores;state;events.type"
	maxResponseBody      = 6 << 20
)

var apiTokenParamRegex = regexp.MustCompile(`api_token=[^&\s"']+`)
var errSportMonksTransient = crerr.New("sportmonks transient failure")

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
	// RetryBackoff is the base wait between attempts; attempt n waits n*RetryBackoff.
	RetryBackoff   time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient   *http.Client
	baseURL      string
	token        string
	maxRetries   int
	retryBackoff time.Duration
	logger       *logging.Logger
	breaker      *resilience.CircuitBreaker
	flight       singleflight.Group
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	return &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		token:        strings.TrimSpace(cfg.Token),
		maxRetries:   max(cfg.MaxRetries, 0),
		retryBackoff: backoff,
		logger:       logger,
		breaker:      resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker),
	}
}

// FetchFixtureResult returns status, final score and goal scorers of one
// provider fixture.
func (c *Client) FetchFixtureResult(ctx context.Context, providerFixtureID int64) (usecase.ExternalFixtureResult, error) {
	if providerFixtureID <= 0 {
		return usecase.ExternalFixtureResult{}, fmt.Errorf("%w: provider fixture id must be positive", usecase.ErrInvalidInput)
	}

	var envelope fixtureEnvelope
	path := "/fixtures/" + strconv.FormatInt(providerFixtureID, 10)
	if err := c.doJSON(ctx, path, map[string]string{"include": includeFixtureResult}, &envelope); err != nil {
		return usecase.ExternalFixtureResult{}, err
	}
	if envelope.Data.ID == 0 {
		return usecase.ExternalFixtureResult{}, fmt.Errorf("%w: provider fixture=%d", usecase.ErrNotFound, providerFixtureID)
	}

	return mapFixtureResult(envelope.Data), nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	key := path + "?" + values.Encode()
	values.Set("api_token", c.token)
	fullURL := c.baseURL + path + "?" + values.Encode()

	out, err, _ := c.flight.Do(key, func() (any, error) {
		var raw []byte
		execErr := c.breaker.Execute(func() error {
			var reqErr error
			raw, reqErr = c.executeRequest(ctx, fullURL)
			return reqErr
		}, isSportMonksCircuitFailure)
		return raw, execErr
	})
	if err != nil {
		switch {
		case crerr.Is(err, resilience.ErrCircuitOpen):
			c.logger.WarnContext(ctx, "sportmonks circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: match data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		case crerr.Is(err, errSportMonksTransient):
			return fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
		}
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return crerr.Wrap(err, "decode provider payload")
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, status, err := c.send(ctx, fullURL)
		switch {
		case err != nil:
			lastErr = err
		case status >= 200 && status < 300:
			return raw, nil
		case status == http.StatusNotFound:
			return nil, fmt.Errorf("%w: provider status=%d", usecase.ErrNotFound, status)
		case isRetryableStatus(status):
			lastErr = fmt.Errorf("%w: provider status=%d body=%s", errSportMonksTransient, status, abbreviateBody(raw))
		default:
			return nil, fmt.Errorf("provider status=%d body=%s", status, abbreviateBody(raw))
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * c.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "sportmonks request failed", "url", redactAPIURL(fullURL), "error", lastErr)
	return nil, lastErr
}

func (c *Client) send(ctx context.Context, fullURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, crerr.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: send request: %s", errSportMonksTransient, sanitizeSensitiveText(err.Error(), c.token))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read response body: %v", errSportMonksTransient, err)
	}
	return raw, resp.StatusCode, nil
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return apiTokenParamRegex.ReplaceAllString(value, "api_token=REDACTED")
}

func isSportMonksCircuitFailure(err error) bool {
	return err != nil && stderrors.Is(err, errSportMonksTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func redactAPIURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return apiTokenParamRegex.ReplaceAllString(rawURL, "api_token=REDACTED")
	}
	query := parsed.Query()
	if query.Has("api_token") {
		query.Set("api_token", "REDACTED")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
