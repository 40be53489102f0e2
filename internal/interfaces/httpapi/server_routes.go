package httpapi

import "net/http"

type wrapFunc func(http.HandlerFunc) http.Handler

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/teams/{teamID}", handler.GetTeam)
	mux.HandleFunc("GET /v1/fixtures", handler.ListFixtures)
	mux.HandleFunc("GET /v1/fixtures/{fixtureID}", handler.GetFixture)
	mux.HandleFunc("GET /v1/rankings", handler.GlobalRanking)
	mux.HandleFunc("GET /v1/shop/products", handler.ListProducts)
	mux.HandleFunc("GET /v1/shop/products/{slugOrID}", handler.GetProduct)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, auth wrapFunc) {
	mux.Handle("GET /v1/me", auth(handler.GetMe))
	mux.Handle("PUT /v1/me", auth(handler.UpdateMe))

	mux.Handle("PUT /v1/fixtures/{fixtureID}/prediction", auth(handler.SubmitPrediction))
	mux.Handle("GET /v1/fixtures/{fixtureID}/predictions", auth(handler.ListFixturePredictions))
	mux.Handle("GET /v1/predictions/me", auth(handler.ListMyPredictions))

	mux.Handle("POST /v1/leagues", auth(handler.CreateLeague))
	mux.Handle("GET /v1/leagues", auth(handler.ListMyLeagues))
	mux.Handle("POST /v1/leagues/join", auth(handler.JoinLeague))
	mux.Handle("GET /v1/leagues/{leagueID}", auth(handler.GetLeague))
	mux.Handle("PUT /v1/leagues/{leagueID}", auth(handler.RenameLeague))
	mux.Handle("DELETE /v1/leagues/{leagueID}", auth(handler.DeleteLeague))
	mux.Handle("DELETE /v1/leagues/{leagueID}/members/me", auth(handler.LeaveLeague))
	mux.Handle("GET /v1/leagues/{leagueID}/ranking", auth(handler.LeagueRanking))
}

func registerShopRoutes(mux *http.ServeMux, handler *Handler, auth wrapFunc, webhookSecret string) {
	mux.Handle("POST /v1/shop/orders", auth(handler.CreateOrder))
	mux.Handle("GET /v1/shop/orders/me", auth(handler.ListMyOrders))
	mux.Handle("GET /v1/shop/orders/{orderID}", auth(handler.GetOrder))
	mux.Handle("POST /v1/shop/orders/{orderID}/cancel", auth(handler.CancelOrder))
	mux.Handle("POST /v1/shop/orders/{orderID}/payments", auth(handler.CreatePayment))
	mux.Handle("GET /v1/shop/payments/{paymentID}", auth(handler.GetPayment))
	mux.Handle("POST /v1/shop/payments/webhook", RequireWebhookSecret(webhookSecret, http.HandlerFunc(handler.PaymentWebhook)))
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, admin wrapFunc) {
	mux.Handle("POST /v1/admin/teams", admin(handler.AdminCreateTeam))
	mux.Handle("PUT /v1/admin/teams/{teamID}", admin(handler.AdminUpdateTeam))
	mux.Handle("DELETE /v1/admin/teams/{teamID}", admin(handler.AdminDeleteTeam))

	mux.Handle("POST /v1/admin/fixtures", admin(handler.AdminCreateFixture))
	mux.Handle("PUT /v1/admin/fixtures/{fixtureID}", admin(handler.AdminUpdateFixture))
	mux.Handle("DELETE /v1/admin/fixtures/{fixtureID}", admin(handler.AdminDeleteFixture))
	mux.Handle("PUT /v1/admin/fixtures/{fixtureID}/result", admin(handler.AdminSetFixtureResult))
	mux.Handle("POST /v1/admin/fixtures/{fixtureID}/sync", admin(handler.AdminSyncFixtureResult))
	mux.Handle("POST /v1/admin/fixtures/{fixtureID}/rescore", admin(handler.AdminRescoreFixture))

	mux.Handle("GET /v1/admin/predictions", admin(handler.AdminListPredictions))
	mux.Handle("PUT /v1/admin/predictions/{predictionID}", admin(handler.AdminOverridePrediction))
	mux.Handle("DELETE /v1/admin/predictions/{predictionID}", admin(handler.AdminDeletePrediction))

	mux.Handle("GET /v1/admin/leagues", admin(handler.AdminListLeagues))
	mux.Handle("DELETE /v1/admin/leagues/{leagueID}", admin(handler.AdminDeleteLeague))
	mux.Handle("DELETE /v1/admin/leagues/{leagueID}/members/{userID}", admin(handler.AdminRemoveLeagueMember))

	mux.Handle("GET /v1/admin/shop/products", admin(handler.AdminListProducts))
	mux.Handle("POST /v1/admin/shop/products", admin(handler.AdminCreateProduct))
	mux.Handle("PUT /v1/admin/shop/products/{productID}", admin(handler.AdminUpdateProduct))
	mux.Handle("DELETE /v1/admin/shop/products/{productID}", admin(handler.AdminDeleteProduct))
	mux.Handle("GET /v1/admin/shop/orders", admin(handler.AdminListOrders))
	mux.Handle("PUT /v1/admin/shop/orders/{orderID}/status", admin(handler.AdminSetOrderStatus))
	mux.Handle("POST /v1/admin/shop/payments/reconcile", admin(handler.AdminReconcilePayments))
}
