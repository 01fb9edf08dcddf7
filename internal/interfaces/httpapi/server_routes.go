package httpapi

import "net/http"

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
	mux.HandleFunc("GET /v1/players", handler.ListPlayers)
	mux.HandleFunc("GET /v1/players/{playerID}", handler.GetPlayer)
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/matchdays", handler.ListMatchdays)

	mux.HandleFunc("POST /v1/webhooks/payments", handler.PaymentWebhook)
	mux.HandleFunc("GET /v1/webhooks/payments/mock", handler.MockPaymentComplete)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier, accounts AccountProvisioner) {
	authed := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, RequireAuth(verifier, accounts, fn))
	}

	authed("GET /v1/me", handler.GetMe)
	authed("PATCH /v1/me", handler.UpdateMe)

	authed("GET /v1/squad", handler.GetSquad)
	authed("POST /v1/squad", handler.CreateSquad)
	authed("PUT /v1/squad", handler.SetFormation)
	authed("POST /v1/squad/players", handler.AddSquadPlayer)
	authed("DELETE /v1/squad/players/{playerID}", handler.RemoveSquadPlayer)
	authed("POST /v1/squad/players/{playerID}/toggle", handler.ToggleStarter)
	authed("PUT /v1/squad/captain", handler.SetCaptain)
	authed("POST /v1/squad/swap", handler.SwapPlayers)
	authed("GET /v1/squad/validation", handler.ValidateSquad)

	authed("POST /v1/transfers", handler.Transfer)
	authed("GET /v1/transfers/summary", handler.TransferSummary)

	authed("GET /v1/wallet", handler.GetWallet)
	authed("POST /v1/wallet", handler.LoadBalance)
	authed("GET /v1/wallet/budget", handler.ListBudgetTiers)
	authed("POST /v1/wallet/budget", handler.PurchaseBudget)
	authed("POST /v1/wallet/ai-unlock", handler.UnlockAI)

	authed("GET /v1/leagues", handler.ListMyLeagues)
	authed("POST /v1/leagues", handler.CreateLeague)
	authed("GET /v1/leagues/{code}", handler.GetLeague)
	authed("POST /v1/leagues/{code}/join", handler.JoinLeague)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/league-lock", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunLeagueLockJob)))
}
