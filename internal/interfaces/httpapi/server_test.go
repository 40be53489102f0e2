package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/plus-predictor/db/seed"
	"github.com/riskibarqy/plus-predictor/internal/domain/prediction"
	"github.com/riskibarqy/plus-predictor/internal/infrastructure/repository/sqlstore"
	"github.com/riskibarqy/plus-predictor/internal/platform/dbtest"
	"github.com/riskibarqy/plus-predictor/internal/platform/id"
	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
	"github.com/riskibarqy/plus-predictor/internal/usecase"
)

const (
	testAdminKey      = "admin-secret"
	testWebhookSecret = "hook-secret"
)

type staticVerifier map[string]usecase.Principal

func (v staticVerifier) VerifyAccessToken(_ context.Context, token string) (usecase.Principal, error) {
	p, ok := v[token]
	if !ok {
		return usecase.Principal{}, fmt.Errorf("%w: unknown token", usecase.ErrUnauthorized)
	}
	return p, nil
}

type fakeGateway struct {
	mu    sync.Mutex
	calls int
}

func (g *fakeGateway) CreateMultibanco(_ context.Context, req usecase.PaymentRequest) (usecase.ProviderPayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	expires := req.ExpiresAt
	return usecase.ProviderPayment{
		ProviderRef: fmt.Sprintf("mb-%d", g.calls),
		Entity:      "11249",
		Reference:   "123456789",
		ExpiresAt:   &expires,
	}, nil
}

func (g *fakeGateway) CreateMBWay(_ context.Context, _ usecase.PaymentRequest) (usecase.ProviderPayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return usecase.ProviderPayment{ProviderRef: fmt.Sprintf("mbway-%d", g.calls)}, nil
}

func (g *fakeGateway) GetStatus(_ context.Context, ref string) (usecase.ProviderStatus, error) {
	return usecase.ProviderStatus{ProviderRef: ref, Status: "pending"}, nil
}

type envelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       json.RawMessage  `json:"data"`
	Error      *googleErrorBody `json:"error"`
}

type testServer struct {
	t      *testing.T
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := dbtest.Open(t)
	ctx := context.Background()
	_, err := sqlstore.BootstrapSeed(ctx, db, seed.Demo, time.Now())
	require.NoError(t, err)

	logger := logging.NewNop()
	idGen := id.NewUUIDGenerator()
	lockLead := 5 * time.Minute

	teamRepo := sqlstore.NewTeamRepository(db)
	fixtureRepo := sqlstore.NewFixtureRepository(db)
	predictionRepo := sqlstore.NewPredictionRepository(db)
	leagueRepo := sqlstore.NewLeagueRepository(db)
	rankingRepo := sqlstore.NewRankingRepository(db)
	userRepo := sqlstore.NewUserRepository(db)
	productRepo := sqlstore.NewProductRepository(db)
	orderRepo := sqlstore.NewOrderRepository(db)
	paymentRepo := sqlstore.NewPaymentRepository(db)

	scoring := usecase.NewScoringService(predictionRepo, prediction.DefaultRules(), logger)
	users := usecase.NewUserService(userRepo)
	leagues := usecase.NewLeagueService(leagueRepo, rankingRepo, idGen)
	payments := usecase.NewPaymentService(orderRepo, paymentRepo, &fakeGateway{}, usecase.PaymentTTLs{}, idGen, logger)

	handler := NewHandler(Services{
		Teams:       usecase.NewTeamService(teamRepo, idGen),
		Fixtures:    usecase.NewFixtureService(fixtureRepo, teamRepo, scoring, idGen),
		Predictions: usecase.NewPredictionService(fixtureRepo, predictionRepo, scoring, lockLead, idGen),
		Leagues:     leagues,
		Users:       users,
		Dashboard:   usecase.NewDashboardService(users, leagues, fixtureRepo, rankingRepo, lockLead),
		Shop:        usecase.NewShopService(productRepo, orderRepo, idGen, logger),
		Payments:    payments,
		Reconciler:  usecase.NewPaymentReconciler(paymentRepo, payments, 2, logger),
	}, db, logger)

	verifier := staticVerifier{
		"token-ana": {UserID: "user-ana", Email: "ana@example.pt", Name: "Ana"},
		"token-rui": {UserID: "user-rui", Email: "rui@example.pt", Name: "Rui"},
	}
	router := NewRouter(handler, verifier, users, logger, RouterConfig{
		AdminAPIKey:   testAdminKey,
		WebhookSecret: testWebhookSecret,
	})
	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path string, body any, headers map[string]string) (int, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := sonic.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(s.t, sonic.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, sonic.Unmarshal(env.Data, &out))
	return out
}

func TestRouter_HealthzAndPublicCatalogue(t *testing.T) {
	srv := newTestServer(t)

	code, _ := srv.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, code)

	code, env := srv.do(http.MethodGet, "/v1/fixtures", nil, nil)
	require.Equal(t, http.StatusOK, code)
	fixtures := decodeData[[]fixtureDTO](t, env)
	require.Len(t, fixtures, 5)
	assert.Equal(t, "fx-liga-01-slb-fcp", fixtures[0].ID)
	assert.Equal(t, "team-benfica", fixtures[0].HomeTeam.ID)

	code, env = srv.do(http.MethodGet, "/v1/shop/products/cachecol-plus", nil, nil)
	require.Equal(t, http.StatusOK, code)
	product := decodeData[productDTO](t, env)
	assert.Equal(t, "14.90", product.Price)
	assert.Equal(t, int64(1490), product.PriceCents)

	code, env = srv.do(http.MethodGet, "/v1/fixtures?status=HALFTIME", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_ARGUMENT", env.Error.Status)
}

func TestRouter_RequiresBearerToken(t *testing.T) {
	srv := newTestServer(t)

	code, env := srv.do(http.MethodGet, "/v1/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, env.Error)

	code, _ = srv.do(http.MethodGet, "/v1/me", nil, map[string]string{"Authorization": "Basic abc"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = srv.do(http.MethodGet, "/v1/me", nil, bearer("nope"))
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = srv.do(http.MethodGet, "/v1/me", nil, bearer("token-ana"))
	require.Equal(t, http.StatusOK, code)
	dash := decodeData[dashboardDTO](t, env)
	assert.Equal(t, "user-ana", dash.User.ID)
	assert.Len(t, dash.PendingFixtures, 5)
}

func TestRouter_PredictionAndLeagueFlow(t *testing.T) {
	srv := newTestServer(t)

	code, env := srv.do(http.MethodPut, "/v1/fixtures/fx-liga-01-slb-fcp/prediction",
		map[string]any{"home_score": 2, "away_score": 1, "scorer": "Pavlidis"}, bearer("token-ana"))
	require.Equal(t, http.StatusOK, code)
	saved := decodeData[predictionDTO](t, env)
	assert.Equal(t, 2, saved.HomeScore)
	assert.Nil(t, saved.Points)

	code, _ = srv.do(http.MethodPut, "/v1/fixtures/fx-liga-01-slb-fcp/prediction",
		map[string]any{"home_score": 2}, bearer("token-ana"))
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = srv.do(http.MethodPut, "/v1/fixtures/fx-liga-01-slb-fcp/prediction",
		map[string]any{"home_score": 2, "away_score": 1, "extra": true}, bearer("token-ana"))
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = srv.do(http.MethodGet, "/v1/predictions/me", nil, bearer("token-ana"))
	require.Equal(t, http.StatusOK, code)
	mine := decodeData[[]myPredictionDTO](t, env)
	require.Len(t, mine, 1)
	assert.Equal(t, "fx-liga-01-slb-fcp", mine[0].Fixture.ID)

	code, env = srv.do(http.MethodGet, "/v1/fixtures/fx-liga-01-slb-fcp/predictions", nil, bearer("token-rui"))
	assert.Equal(t, http.StatusForbidden, code)
	require.NotNil(t, env.Error)

	code, env = srv.do(http.MethodPost, "/v1/leagues", map[string]any{"name": "Escritorio"}, bearer("token-ana"))
	require.Equal(t, http.StatusCreated, code)
	created := decodeData[leagueDTO](t, env)
	require.NotEmpty(t, created.InviteCode)
	assert.Equal(t, "owner", created.Role)

	code, env = srv.do(http.MethodPost, "/v1/leagues/join", map[string]any{"invite_code": created.InviteCode}, bearer("token-rui"))
	require.Equal(t, http.StatusOK, code)
	joined := decodeData[leagueDTO](t, env)
	assert.Equal(t, created.ID, joined.ID)

	code, _ = srv.do(http.MethodPut, "/v1/leagues/"+created.ID, map[string]any{"name": "Takeover"}, bearer("token-rui"))
	assert.Equal(t, http.StatusForbidden, code)

	code, env = srv.do(http.MethodGet, "/v1/leagues/"+created.ID+"/ranking", nil, bearer("token-rui"))
	require.Equal(t, http.StatusOK, code)
	entries := decodeData[[]rankingEntryDTO](t, env)
	assert.Len(t, entries, 2)

	code, _ = srv.do(http.MethodDelete, "/v1/leagues/"+created.ID+"/members/me", nil, bearer("token-ana"))
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = srv.do(http.MethodDelete, "/v1/leagues/"+created.ID+"/members/me", nil, bearer("token-rui"))
	assert.Equal(t, http.StatusOK, code)
}

func TestRouter_AdminKey(t *testing.T) {
	srv := newTestServer(t)
	team := map[string]any{"name": "Moreirense", "short_name": "MFC"}

	code, _ := srv.do(http.MethodPost, "/v1/admin/teams", team, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = srv.do(http.MethodPost, "/v1/admin/teams", team, map[string]string{adminKeyHeader: "wrong"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env := srv.do(http.MethodPost, "/v1/admin/teams", team, map[string]string{adminKeyHeader: testAdminKey})
	require.Equal(t, http.StatusCreated, code)
	created := decodeData[teamDTO](t, env)
	assert.Equal(t, "MFC", created.ShortName)

	code, _ = srv.do(http.MethodDelete, "/v1/admin/teams/team-benfica", nil, map[string]string{adminKeyHeader: testAdminKey})
	assert.Equal(t, http.StatusConflict, code)
}

func TestRouter_FixtureSyncWithoutResultFeed(t *testing.T) {
	srv := newTestServer(t)
	admin := map[string]string{adminKeyHeader: testAdminKey}

	code, _ := srv.do(http.MethodPost, "/v1/admin/fixtures/fx-liga-01-slb-fcp/sync", map[string]any{}, admin)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := srv.do(http.MethodPost, "/v1/admin/fixtures/fx-liga-01-slb-fcp/sync", map[string]any{"provider_fixture_id": 19135003}, admin)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	require.NotNil(t, env.Error)
}

func TestRequireSharedSecret_Unconfigured(t *testing.T) {
	called := false
	h := RequireAdminKey("  ", http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/leagues", nil)
	req.Header.Set(adminKeyHeader, "anything")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, called)
}

func TestRouter_ShopCheckoutAndWebhook(t *testing.T) {
	srv := newTestServer(t)

	code, env := srv.do(http.MethodPost, "/v1/shop/orders", map[string]any{
		"items":          []map[string]any{{"product_id": "prod-scarf", "quantity": 2}},
		"customer_name":  "Ana Silva",
		"customer_email": "ana@example.pt",
	}, bearer("token-ana"))
	require.Equal(t, http.StatusCreated, code)
	order := decodeData[orderDTO](t, env)
	assert.Equal(t, "29.80", order.Total)
	assert.Equal(t, "pending", order.Status)

	code, _ = srv.do(http.MethodGet, "/v1/shop/orders/"+order.ID, nil, bearer("token-rui"))
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = srv.do(http.MethodPost, "/v1/shop/orders/"+order.ID+"/payments", map[string]any{"method": "mbway"}, bearer("token-ana"))
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = srv.do(http.MethodPost, "/v1/shop/orders/"+order.ID+"/payments", map[string]any{"method": "multibanco"}, bearer("token-ana"))
	require.Equal(t, http.StatusCreated, code)
	payment := decodeData[paymentDTO](t, env)
	assert.Equal(t, "11249", payment.Entity)
	assert.Equal(t, "pending", payment.Status)

	hook := map[string]any{"provider_ref": "mb-1", "order_id": order.ID, "amount": "29.80", "status": "paid", "provider_extra": 1}

	code, _ = srv.do(http.MethodPost, "/v1/shop/payments/webhook", hook, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = srv.do(http.MethodPost, "/v1/shop/payments/webhook",
		map[string]any{"provider_ref": "mb-1", "amount": "10.00", "status": "paid"},
		map[string]string{webhookSecretHeader: testWebhookSecret})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = srv.do(http.MethodPost, "/v1/shop/payments/webhook", hook, map[string]string{webhookSecretHeader: testWebhookSecret})
	require.Equal(t, http.StatusOK, code)
	result := decodeData[webhookResultDTO](t, env)
	assert.True(t, result.Applied)
	assert.Equal(t, "paid", result.Status)

	code, env = srv.do(http.MethodPost, "/v1/shop/payments/webhook", hook, map[string]string{webhookSecretHeader: testWebhookSecret})
	require.Equal(t, http.StatusOK, code)
	assert.False(t, decodeData[webhookResultDTO](t, env).Applied)

	code, env = srv.do(http.MethodGet, "/v1/shop/orders/"+order.ID, nil, bearer("token-ana"))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "paid", decodeData[orderDTO](t, env).Status)

	code, _ = srv.do(http.MethodPost, "/v1/shop/orders/"+order.ID+"/cancel", nil, bearer("token-ana"))
	assert.Equal(t, http.StatusConflict, code)
}

func TestRouter_InsufficientStock(t *testing.T) {
	srv := newTestServer(t)
	admin := map[string]string{adminKeyHeader: testAdminKey}

	code, _ := srv.do(http.MethodPut, "/v1/admin/shop/products/prod-shirt", map[string]any{
		"slug":        "camisola-oficial",
		"name":        "Camisola Oficial",
		"price_cents": 3990,
		"stock":       1,
	}, admin)
	require.Equal(t, http.StatusOK, code)

	code, env := srv.do(http.MethodPost, "/v1/shop/orders", map[string]any{
		"items":          []map[string]any{{"product_id": "prod-shirt", "quantity": 2}},
		"customer_name":  "Rui",
		"customer_email": "rui@example.pt",
	}, bearer("token-rui"))
	require.Equal(t, http.StatusConflict, code)
	require.NotNil(t, env.Error)
	require.NotEmpty(t, env.Error.Errors)
	assert.Equal(t, "insufficientStock", env.Error.Errors[0].Reason)
}
