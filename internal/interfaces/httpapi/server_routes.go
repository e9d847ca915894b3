package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerWaiverRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/players", handler.RegisterPlayer)
	mux.HandleFunc("DELETE /v1/players/{playerID}", handler.RemovePlayer)
	mux.HandleFunc("GET /v1/players/eligible", handler.ListEligiblePlayers)
	mux.HandleFunc("GET /v1/players/pending", handler.ListPendingPlayers)

	mux.HandleFunc("POST /v1/claims", handler.SubmitClaim)
	mux.HandleFunc("POST /v1/claims/quick", handler.SubmitQuickClaim)
	mux.HandleFunc("POST /v1/claims/free", handler.SubmitFreeClaim)
	mux.HandleFunc("POST /v1/claims/adjust", handler.AdjustClaim)
	mux.HandleFunc("POST /v1/claims/withdraw", handler.WithdrawClaim)

	mux.HandleFunc("GET /v1/teams/{teamCode}/claims", handler.ListTeamClaims)
	mux.HandleFunc("GET /v1/teams/{teamCode}/claims/history", handler.ListTeamClaimHistory)

	mux.HandleFunc("GET /v1/priorities", handler.ListPriorities)
}

func registerInternalRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("PUT /v1/internal/priorities", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.SetPriorities)))

	mux.Handle("GET /v1/internal/jobs", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ListJobs)))
	mux.Handle("POST /v1/internal/jobs/announce/run", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunAnnounceJob)))
	mux.Handle("POST /v1/internal/jobs/clearing/run", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunClearingJob)))
	mux.Handle("POST /v1/internal/jobs/pause", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.PauseAllJobs)))
	mux.Handle("POST /v1/internal/jobs/resume", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ResumeAllJobs)))
	mux.Handle("POST /v1/internal/jobs/{jobName}/pause", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.PauseJob)))
	mux.Handle("POST /v1/internal/jobs/{jobName}/resume", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ResumeJob)))
}
