package httpapi

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/plus-predictor/internal/domain/user"
	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
	"github.com/riskibarqy/plus-predictor/internal/usecase"
)

const (
	adminKeyHeader      = "X-Admin-Key"
	webhookSecretHeader = "X-Webhook-Secret"
)

// TokenVerifier verifies bearer tokens against the identity provider.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (usecase.Principal, error)
}

// UserEnsurer records a verified principal as a local user.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, principal usecase.Principal) (user.User, error)
}

func RequireAuth(verifier TokenVerifier, users UserEnsurer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.RequireAuth")
		defer span.End()

		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader == "" {
			writeError(ctx, w, fmt.Errorf("%w: missing Authorization header", usecase.ErrUnauthorized))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			writeError(ctx, w, fmt.Errorf("%w: invalid Authorization header format", usecase.ErrUnauthorized))
			return
		}

		principal, err := verifier.VerifyAccessToken(ctx, strings.TrimSpace(parts[1]))
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		current, err := users.EnsureUser(ctx, principal)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(ctx, current)))
	})
}

// RequireAdminKey guards backoffice routes with a static shared secret.
func RequireAdminKey(key string, next http.Handler) http.Handler {
	return requireSharedSecret(key, adminKeyHeader, "admin key", next)
}

// RequireWebhookSecret guards the payment provider callback.
func RequireWebhookSecret(secret string, next http.Handler) http.Handler {
	return requireSharedSecret(secret, webhookSecretHeader, "webhook secret", next)
}

func requireSharedSecret(expected, header, label string, next http.Handler) http.Handler {
	expected = strings.TrimSpace(expected)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.requireSharedSecret")
		defer span.End()

		if expected == "" {
			writeError(ctx, w, fmt.Errorf("%w: %s is not configured", usecase.ErrDependencyUnavailable, label))
			return
		}

		provided := strings.TrimSpace(r.Header.Get(header))
		if provided == "" {
			writeError(ctx, w, fmt.Errorf("%w: missing %s header", usecase.ErrUnauthorized, header))
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			writeError(ctx, w, fmt.Errorf("%w: invalid %s", usecase.ErrForbidden, label))
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func RequestLogging(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.RequestLogging")
		defer span.End()

		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"client_ip", resolveClientIP(r),
			"duration_ms", time.Since(started).Milliseconds(),
		}
		switch {
		case rec.status >= http.StatusInternalServerError:
			logger.ErrorContext(ctx, "http request", args...)
		case rec.status >= http.StatusBadRequest:
			logger.WarnContext(ctx, "http request", args...)
		default:
			logger.InfoContext(ctx, "http request", args...)
		}
	})
}

func RequestTracing(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "plus-predictor-http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithFilter(func(r *http.Request) bool {
			return shouldTraceRequest(r.URL.Path)
		}),
	)
}

func shouldTraceRequest(path string) bool {
	normalized := strings.ToLower(strings.TrimSpace(path))
	switch normalized {
	case "/healthz", "/health", "/livez", "/readyz":
		return false
	default:
		return true
	}
}

func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	allowAll := false
	allowMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		candidate := strings.TrimSpace(origin)
		if candidate == "" {
			continue
		}
		if candidate == "*" {
			allowAll = true
			continue
		}
		allowMap[candidate] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.CORS")
		defer span.End()

		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		allowed := allowAll
		if !allowed {
			_, allowed = allowMap[origin]
		}
		if allowed {
			if allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type,Accept,"+adminKeyHeader)
			w.Header().Set("Access-Control-Max-Age", "600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
