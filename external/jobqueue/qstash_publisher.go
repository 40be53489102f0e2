// Package jobqueue publishes delayed HTTP callbacks through Upstash QStash.
package jobqueue

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
	"github.com/riskibarqy/plus-predictor/internal/platform/resilience"
	"github.com/riskibarqy/plus-predictor/internal/usecase"
)

const (
	defaultTimeout = 10 * time.Second
	// ReconcilePath is the admin route a scheduled sweep calls back.
	ReconcilePath = "/v1/admin/shop/payments/reconcile"
)

var errQStashTransient = crerr.New("qstash transient failure")

type Config struct {
	HTTPClient    *http.Client
	BaseURL       string
	Token         string
	TargetBaseURL string
	Retries       int
	// AdminAPIKey is forwarded as X-Admin-Key so the callback passes the admin guard.
	AdminAPIKey    string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
	Logger         *logging.Logger
}

type Publisher struct {
	client        *http.Client
	baseURL       string
	token         string
	targetBaseURL string
	retries       int
	adminAPIKey   string
	logger        *logging.Logger
	breaker       *resilience.CircuitBreaker
	now           func() time.Time
}

func NewPublisher(cfg Config) *Publisher {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Publisher{
		client:        client,
		baseURL:       strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:         strings.TrimSpace(cfg.Token),
		targetBaseURL: strings.TrimRight(strings.TrimSpace(cfg.TargetBaseURL), "/"),
		retries:       max(cfg.Retries, 0),
		adminAPIKey:   strings.TrimSpace(cfg.AdminAPIKey),
		logger:        logger,
		breaker:       resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker),
		now:           time.Now,
	}
}

// ScheduleReconcile books one reconciliation sweep at the given time.
// The deduplication id keeps repeated bookings for a payment to one message.
func (p *Publisher) ScheduleReconcile(ctx context.Context, paymentID string, at time.Time) error {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return fmt.Errorf("%w: payment id is required", usecase.ErrInvalidInput)
	}
	delay := at.Sub(p.now())
	return p.Enqueue(ctx, ReconcilePath, map[string]any{"payment_id": paymentID}, delay, "reconcile-"+paymentID)
}

// Enqueue asks QStash to POST payload to the target path after delay.
func (p *Publisher) Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error {
	path = "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "/" {
		return crerr.New("job path is required")
	}

	baseURL, err := validateHTTPBaseURL(p.baseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid QSTASH_BASE_URL")
	}
	targetBaseURL, err := validateHTTPBaseURL(p.targetBaseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid QSTASH_TARGET_BASE_URL")
	}

	if payload == nil {
		payload = map[string]any{}
	}
	body, err := sonic.Marshal(payload)
	if err != nil {
		return crerr.Wrap(err, "marshal job payload")
	}

	targetURL := targetBaseURL + path
	publishURL := baseURL + "/v2/publish/" + targetURL
	delayText := normalizeDelay(delay)
	deduplicationID = strings.TrimSpace(deduplicationID)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("qstash.target_url", targetURL),
			attribute.String("qstash.delay", delayText),
			attribute.String("qstash.deduplication_id", deduplicationID),
		)
	}
	p.logger.DebugContext(ctx, "qstash publish request",
		"target_url", targetURL,
		"curl_preview", buildCurlPreview(publishURL, delayText, p.retries, deduplicationID, string(body), p.adminAPIKey != ""),
	)

	err = p.breaker.Execute(func() error {
		return p.publish(ctx, publishURL, body, delay, deduplicationID)
	}, isQStashCircuitFailure)
	if err != nil {
		if crerr.Is(err, resilience.ErrCircuitOpen) {
			p.logger.WarnContext(ctx, "qstash circuit breaker rejected request", "state", p.breaker.State())
			return fmt.Errorf("%w: job queue is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
		if crerr.Is(err, errQStashTransient) {
			return fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
		}
		return err
	}

	p.logger.InfoContext(ctx, "qstash job published",
		"path", path,
		"delay", delayText,
		"deduplication_id", deduplicationID,
	)
	return nil
}

func (p *Publisher) publish(ctx context.Context, publishURL string, body []byte, delay time.Duration, deduplicationID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, publishURL, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Method", http.MethodPost)
	if p.retries > 0 {
		req.Header.Set("Upstash-Retries", strconv.Itoa(p.retries))
	}
	if delay > 0 {
		req.Header.Set("Upstash-Delay", normalizeDelay(delay))
	}
	if deduplicationID != "" {
		req.Header.Set("Upstash-Deduplication-Id", deduplicationID)
	}
	if p.adminAPIKey != "" {
		req.Header.Set("Upstash-Forward-X-Admin-Key", p.adminAPIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: publish qstash job: %v", errQStashTransient, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 == 2 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if isQStashRetryableStatus(resp.StatusCode) {
		return fmt.Errorf("%w: publish qstash job status=%d body=%s", errQStashTransient, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return fmt.Errorf("publish qstash job status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
}

func normalizeDelay(delay time.Duration) string {
	seconds := int(delay.Round(time.Second).Seconds())
	if seconds <= 0 {
		return "0s"
	}
	return fmt.Sprintf("%ds", seconds)
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

// buildCurlPreview renders the publish call with secrets masked.
func buildCurlPreview(publishURL, delay string, retries int, deduplicationID, body string, withAdminKey bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl -X POST")
	appendPart(shellQuote(publishURL))
	appendHeader("Authorization: Bearer ***")
	appendHeader("Content-Type: application/json")
	appendHeader("Upstash-Method: POST")
	if retries > 0 {
		appendHeader("Upstash-Retries: " + strconv.Itoa(retries))
	}
	if delay != "" && delay != "0s" {
		appendHeader("Upstash-Delay: " + delay)
	}
	if deduplicationID != "" {
		appendHeader("Upstash-Deduplication-Id: " + deduplicationID)
	}
	if withAdminKey {
		appendHeader("Upstash-Forward-X-Admin-Key: ***")
	}
	appendPart("-d")
	appendPart(shellQuote(truncateForLog(body, 1024)))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	return value[:limit] + "...(truncated)"
}

func isQStashCircuitFailure(err error) bool {
	return err != nil && stderrors.Is(err, errQStashTransient)
}

func isQStashRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
