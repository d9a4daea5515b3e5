package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicDraftRoutes(mux *http.ServeMux, handler *Handler, auth Authenticator) {
	mux.Handle("GET /v1/draft/state", OptionalTeam(auth, http.HandlerFunc(handler.GetDraftState)))
	mux.HandleFunc("GET /v1/draft/version", handler.GetDraftVersion)
}

func registerTeamRoutes(mux *http.ServeMux, handler *Handler, auth Authenticator) {
	mux.Handle("POST /v1/draft/picks", RequireTeam(auth, http.HandlerFunc(handler.MakePick)))
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, auth Authenticator) {
	admin := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, RequireAdmin(auth, h))
	}

	admin("POST /v1/admin/draft/start", handler.StartDraft())
	admin("POST /v1/admin/draft/pause", handler.PauseDraft())
	admin("POST /v1/admin/draft/resume", handler.ResumeDraft())
	admin("POST /v1/admin/draft/restart-timer", handler.RestartTimer())
	admin("POST /v1/admin/draft/skip", handler.SkipTurn())
	admin("POST /v1/admin/draft/undo", handler.UndoLastEvent())
	admin("POST /v1/admin/draft/end", handler.EndDraft())
	admin("POST /v1/admin/draft/reset", handler.ResetDraft())
	admin("POST /v1/admin/draft/assign", handler.AssignPlayer)
	admin("PUT /v1/admin/draft/name", handler.UpdateDraftName)
	admin("PUT /v1/admin/draft/settings", handler.UpdateSettings)

	admin("POST /v1/admin/players/import", handler.ImportPlayers)
	admin("GET /v1/admin/teams", handler.ListTeams)
	admin("PUT /v1/admin/teams", handler.UpdateTeams)
	admin("GET /v1/admin/audit", handler.ListAudit)
	admin("GET /v1/admin/export", handler.ExportDraft)
}
