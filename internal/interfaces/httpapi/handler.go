package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/plus-predictor/internal/domain/user"
	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
	"github.com/riskibarqy/plus-predictor/internal/usecase"
)

const maxRequestBody = 1 << 20

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Services struct {
	Teams       *usecase.TeamService
	Fixtures    *usecase.FixtureService
	Predictions *usecase.PredictionService
	Leagues     *usecase.LeagueService
	Users       *usecase.UserService
	Dashboard   *usecase.DashboardService
	Shop        *usecase.ShopService
	Payments    *usecase.PaymentService
	Reconciler  *usecase.PaymentReconciler
}

type Handler struct {
	teamService       *usecase.TeamService
	fixtureService    *usecase.FixtureService
	predictionService *usecase.PredictionService
	leagueService     *usecase.LeagueService
	userService       *usecase.UserService
	dashboardService  *usecase.DashboardService
	shopService       *usecase.ShopService
	paymentService    *usecase.PaymentService
	reconciler        *usecase.PaymentReconciler
	db                Pinger
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(services Services, db Pinger, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		teamService:       services.Teams,
		fixtureService:    services.Fixtures,
		predictionService: services.Predictions,
		leagueService:     services.Leagues,
		userService:       services.Users,
		dashboardService:  services.Dashboard,
		shopService:       services.Shop,
		paymentService:    services.Payments,
		reconciler:        services.Reconciler,
		db:                db,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	if h.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(pingCtx); err != nil {
			h.logger.ErrorContext(ctx, "database ping failed", "error", err)
			writeError(ctx, w, fmt.Errorf("%w: database unreachable", usecase.ErrDependencyUnavailable))
			return
		}
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeAndValidate reads a JSON body into dst, rejecting unknown fields.
func (h *Handler) decodeAndValidate(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, dst)
}

func currentUser(ctx context.Context) (user.User, error) {
	u, ok := userFromContext(ctx)
	if !ok {
		return user.User{}, fmt.Errorf("%w: user is missing from request context", usecase.ErrUnauthorized)
	}
	return u, nil
}

func parseOptionalTime(raw, field string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		utc := parsed.UTC()
		return &utc, nil
	}
	parsed, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339 or YYYY-MM-DD", usecase.ErrInvalidInput, field)
	}
	return &parsed, nil
}

func parseLimit(raw string, fallback, maximum int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", usecase.ErrInvalidInput)
	}
	return min(limit, maximum), nil
}
