package httpapi

import (
	"net/http"

	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
)

type RouterConfig struct {
	SwaggerEnabled     bool
	CORSAllowedOrigins []string
	AdminAPIKey        string
	WebhookSecret      string
}

func NewRouter(
	handler *Handler,
	verifier TokenVerifier,
	users UserEnsurer,
	logger *logging.Logger,
	cfg RouterConfig,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	auth := func(fn http.HandlerFunc) http.Handler {
		return RequireAuth(verifier, users, fn)
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return RequireAdminKey(cfg.AdminAPIKey, fn)
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, cfg.SwaggerEnabled)
	registerPublicRoutes(mux, handler)
	registerAuthorizedRoutes(mux, handler, auth)
	registerShopRoutes(mux, handler, auth, cfg.WebhookSecret)
	registerAdminRoutes(mux, handler, admin)

	return RequestTracing(RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, mux))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
