package httpapi

import (
	"net/http"
)

type makePickRequest struct {
	PlayerID int `json:"player_id" validate:"required,min=1"`
}

func (h *Handler) GetDraftState(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetDraftState")
	defer span.End()

	var viewer *int
	if team, ok := teamFromContext(ctx); ok {
		id := team.ID
		viewer = &id
	}

	state, err := h.draftService.State(ctx, viewer)
	if err != nil {
		h.logger.ErrorContext(ctx, "get draft state failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, state)
}

func (h *Handler) GetDraftVersion(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetDraftVersion")
	defer span.End()

	version, err := h.draftService.Version(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get draft version failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, version)
}

func (h *Handler) MakePick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MakePick")
	defer span.End()

	team, ok := teamFromContext(ctx)
	if !ok {
		writeInternalError(ctx, w)
		return
	}

	var req makePickRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	err := h.draftService.MakePick(ctx, team.ID, req.PlayerID)
	if err != nil {
		h.logger.InfoContext(ctx, "pick rejected", "team_id", team.ID, "player_id", req.PlayerID, "error", err)
	}
	writeActionResult(ctx, w, err)
}
