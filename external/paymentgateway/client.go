// Package paymentgateway talks to the Multibanco / MB WAY payment provider.
package paymentgateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/plus-predictor/internal/domain/shop"
	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
	"github.com/riskibarqy/plus-predictor/internal/platform/resilience"
	"github.com/riskibarqy/plus-predictor/internal/usecase"
)

const (
	defaultTimeout     = 10 * time.Second
	maxResponseBody    = 1 << 20
	maxLoggedBody      = 2048
	providerDateLayout = "2006-01-02"
)

var errProviderTransient = crerr.New("payment provider transient failure")

type Config struct {
	BaseURL       string
	APIKey        string
	MultibancoKey string
	MBWayKey      string
	Timeout       time.Duration
	MaxRetries    int
	// RetryBackoff is the base wait between attempts; attempt n waits n*RetryBackoff.
	RetryBackoff   time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
	Logger         *logging.Logger
}

type Client struct {
	http          *fasthttp.Client
	baseURL       string
	apiKey        string
	multibancoKey string
	mbwayKey      string
	timeout       time.Duration
	maxRetries    int
	retryBackoff  time.Duration
	breaker       *resilience.CircuitBreaker
	logger        *logging.Logger
}

func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}

	return &Client{
		http: &fasthttp.Client{
			Name:                "plus-predictor",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 30 * time.Second,
		},
		baseURL:       strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:        strings.TrimSpace(cfg.APIKey),
		multibancoKey: strings.TrimSpace(cfg.MultibancoKey),
		mbwayKey:      strings.TrimSpace(cfg.MBWayKey),
		timeout:       timeout,
		maxRetries:    max(cfg.MaxRetries, 0),
		retryBackoff:  backoff,
		breaker:       resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker),
		logger:        logger,
	}
}

type multibancoRequest struct {
	MultibancoKey string `json:"mb_key"`
	OrderID       string `json:"order_id"`
	Amount        string `json:"amount"`
	Description   string `json:"description,omitempty"`
	Email         string `json:"email,omitempty"`
	ExpiryDate    string `json:"expiry_date,omitempty"`
}

type mbwayRequest struct {
	MBWayKey    string `json:"mbway_key"`
	OrderID     string `json:"order_id"`
	Amount      string `json:"amount"`
	Phone       string `json:"mobile_number"`
	Email       string `json:"email,omitempty"`
	Description string `json:"description,omitempty"`
}

type createResponse struct {
	RequestID  string `json:"request_id"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	Entity     string `json:"entity"`
	Reference  string `json:"reference"`
	Amount     string `json:"amount"`
	ExpiryDate string `json:"expiry_date"`
}

type statusResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
	PaidAt    string `json:"paid_at"`
}

func (c *Client) CreateMultibanco(ctx context.Context, req usecase.PaymentRequest) (usecase.ProviderPayment, error) {
	if c.multibancoKey == "" {
		return usecase.ProviderPayment{}, crerr.New("multibanco key is not configured")
	}

	payload := multibancoRequest{
		MultibancoKey: c.multibancoKey,
		OrderID:       req.OrderID,
		Amount:        shop.FormatAmount(req.AmountCents),
		Description:   req.Description,
		Email:         req.Email,
	}
	if !req.ExpiresAt.IsZero() {
		payload.ExpiryDate = req.ExpiresAt.UTC().Format(providerDateLayout)
	}

	var out createResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/multibanco/references", idempotencyKey(shop.MethodMultibanco, req), payload, &out); err != nil {
		return usecase.ProviderPayment{}, err
	}
	if out.RequestID == "" || out.Entity == "" || out.Reference == "" {
		return usecase.ProviderPayment{}, crerr.Newf("multibanco response missing reference data: status=%q message=%q", out.Status, out.Message)
	}

	payment := usecase.ProviderPayment{
		ProviderRef: out.RequestID,
		Entity:      out.Entity,
		Reference:   out.Reference,
	}
	if expires := parseProviderTime(out.ExpiryDate); expires != nil {
		payment.ExpiresAt = expires
	}
	return payment, nil
}

func (c *Client) CreateMBWay(ctx context.Context, req usecase.PaymentRequest) (usecase.ProviderPayment, error) {
	if c.mbwayKey == "" {
		return usecase.ProviderPayment{}, crerr.New("mbway key is not configured")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return usecase.ProviderPayment{}, crerr.New("mbway phone is required")
	}

	payload := mbwayRequest{
		MBWayKey:    c.mbwayKey,
		OrderID:     req.OrderID,
		Amount:      shop.FormatAmount(req.AmountCents),
		Phone:       req.Phone,
		Email:       req.Email,
		Description: req.Description,
	}

	var out createResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/mbway/requests", idempotencyKey(shop.MethodMBWay, req), payload, &out); err != nil {
		return usecase.ProviderPayment{}, err
	}
	if out.RequestID == "" {
		return usecase.ProviderPayment{}, crerr.Newf("mbway response missing request id: status=%q message=%q", out.Status, out.Message)
	}
	if status, ok := shop.NormalizePaymentStatus(out.Status); ok && status == shop.PaymentFailed {
		return usecase.ProviderPayment{}, crerr.Newf("mbway request rejected: %s", out.Message)
	}

	return usecase.ProviderPayment{
		ProviderRef: out.RequestID,
		ExpiresAt:   parseProviderTime(out.ExpiryDate),
	}, nil
}

func (c *Client) GetStatus(ctx context.Context, providerRef string) (usecase.ProviderStatus, error) {
	providerRef = strings.TrimSpace(providerRef)
	if providerRef == "" {
		return usecase.ProviderStatus{}, crerr.New("provider reference is required")
	}

	var out statusResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/payments/"+url.PathEscape(providerRef), "", nil, &out); err != nil {
		return usecase.ProviderStatus{}, err
	}

	status, ok := shop.NormalizePaymentStatus(out.Status)
	if !ok {
		return usecase.ProviderStatus{}, crerr.Newf("unknown provider status %q for ref=%s", out.Status, providerRef)
	}
	result := usecase.ProviderStatus{
		ProviderRef: providerRef,
		Status:      status,
		PaidAt:      parseProviderTime(out.PaidAt),
	}
	if out.Amount != "" {
		amount, err := shop.ParseAmount(out.Amount)
		if err != nil {
			return usecase.ProviderStatus{}, crerr.Wrapf(err, "provider amount for ref=%s", providerRef)
		}
		result.AmountCents = amount
	}
	return result, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, idemKey string, payload, target any) error {
	if c.baseURL == "" {
		return crerr.New("payment provider base url is not configured")
	}
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "payment provider circuit breaker rejected request", "state", c.breaker.State(), "path", path)
		return fmt.Errorf("%w: payment provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}

	var body []byte
	if payload != nil {
		raw, err := sonic.Marshal(payload)
		if err != nil {
			c.breaker.RecordSuccess()
			return crerr.Wrap(err, "marshal provider payload")
		}
		body = raw
	}

	fullURL := c.baseURL + path
	preview := buildCurlPreview(method, fullURL, idemKey, redactBody(body))
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("payment_provider.method", method),
			attribute.String("payment_provider.url", fullURL),
			attribute.String("payment_provider.request_curl_preview", preview),
		)
	}
	c.logger.DebugContext(ctx, "payment provider request", "method", method, "url", fullURL, "curl_preview", preview)

	raw, err := c.executeRequest(ctx, method, fullURL, idemKey, body)
	if err != nil {
		if crerr.Is(err, errProviderTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
		return err
	}
	c.breaker.RecordSuccess()

	if err := sonic.Unmarshal(raw, target); err != nil {
		return crerr.Wrap(err, "decode provider payload")
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, method, fullURL, idemKey string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, status, err := c.send(ctx, method, fullURL, idemKey, body)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%w: send request: %v", errProviderTransient, err)
		case status >= 200 && status < 300:
			return raw, nil
		case isRetryableStatus(status):
			lastErr = fmt.Errorf("%w: provider status=%d body=%s", errProviderTransient, status, abbreviateBody(raw))
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

	c.logger.WarnContext(ctx, "payment provider request failed", "method", method, "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) send(ctx context.Context, method, fullURL, idemKey string, body []byte) ([]byte, int, error) {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, 0, context.DeadlineExceeded
		}
		timeout = min(timeout, remaining)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBodyRaw(body)
	}

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return nil, 0, err
	}

	raw := resp.Body()
	if len(raw) > maxResponseBody {
		raw = raw[:maxResponseBody]
	}
	return append([]byte(nil), raw...), resp.StatusCode(), nil
}

// idempotencyKey keeps retried create calls from opening a second payment.
func idempotencyKey(method string, req usecase.PaymentRequest) string {
	key := method + ":" + req.OrderID + ":" + strconv.FormatInt(req.AmountCents, 10)
	if !req.ExpiresAt.IsZero() {
		key += ":" + strconv.FormatInt(req.ExpiresAt.Unix(), 10)
	}
	return key
}

func parseProviderTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", providerDateLayout, "02-01-2006"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			out := parsed.UTC()
			if layout == providerDateLayout || layout == "02-01-2006" {
				out = out.Add(24*time.Hour - time.Second)
			}
			return &out
		}
	}
	return nil
}

func isRetryableStatus(status int) bool {
	return status == fasthttp.StatusRequestTimeout ||
		status == fasthttp.StatusTooManyRequests ||
		status >= fasthttp.StatusInternalServerError
}

func abbreviateBody(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) <= maxLoggedBody {
		return text
	}
	return text[:maxLoggedBody] + "...(truncated)"
}

var redactedFields = []string{"mb_key", "mbway_key", "mobile_number", "email"}

// redactBody masks keys and personal data before the body reaches logs or spans.
func redactBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var fields map[string]any
	if err := sonic.Unmarshal(body, &fields); err != nil {
		return abbreviateBody(body)
	}
	for _, name := range redactedFields {
		if _, ok := fields[name]; ok {
			fields[name] = "***"
		}
	}
	out, err := sonic.MarshalString(fields)
	if err != nil {
		return abbreviateBody(body)
	}
	return out
}

func buildCurlPreview(method, fullURL, idemKey, body string) string {
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

	appendPart("curl")
	appendPart("-X")
	appendPart(method)
	appendPart(shellQuote(fullURL))
	appendHeader("X-Api-Key: ***")
	if idemKey != "" {
		appendHeader("Idempotency-Key: " + idemKey)
	}
	if body != "" {
		appendHeader("Content-Type: application/json")
		appendPart("-d")
		appendPart(shellQuote(body))
	}
	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}
