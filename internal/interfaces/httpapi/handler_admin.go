package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
	"github.com/riskibarqy/starleague-draft/internal/usecase"
)

const maxImportBodyBytes = 4 << 20

type assignPlayerRequest struct {
	TeamID   int `json:"team_id" validate:"required,min=1"`
	PlayerID int `json:"player_id" validate:"required,min=1"`
}

type updateDraftNameRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type updateSettingsRequest struct {
	SecondsPerPick int `json:"seconds_per_pick" validate:"required,min=1,max=86400"`
}

type updateTeamsRequest struct {
	Teams []teamUpdateRequest `json:"teams" validate:"required,min=1,dive"`
}

type teamUpdateRequest struct {
	ID            int    `json:"id" validate:"required,min=1"`
	Name          string `json:"name" validate:"required,max=120"`
	Logo          string `json:"logo" validate:"omitempty,max=2048"`
	DraftPosition *int   `json:"draft_position" validate:"omitempty,min=1"`
}

type adminTeamDTO struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	DraftPosition int    `json:"draft_position"`
	Logo          string `json:"logo"`
	Token         string `json:"token"`
}

type importResultDTO struct {
	Success  bool `json:"success"`
	Imported int  `json:"imported"`
}

// adminAction adapts a body-less draft command to a handler.
func (h *Handler) adminAction(spanName, action string, run func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), spanName)
		defer span.End()

		err := run(ctx)
		if err != nil {
			h.logger.InfoContext(ctx, "admin action rejected", "action", action, "error", err)
		}
		writeActionResult(ctx, w, err)
	}
}

func (h *Handler) StartDraft() http.HandlerFunc {
	return h.adminAction("httpapi.Handler.StartDraft", "start", h.draftService.Start)
}

func (h *Handler) PauseDraft() http.HandlerFunc {
	return h.adminAction("httpapi.Handler.PauseDraft", "pause", h.draftService.Pause)
}

func (h *Handler) ResumeDraft() http.HandlerFunc {
	return h.adminAction("httpapi.Handler.ResumeDraft", "resume", h.draftService.Resume)
}

func (h *Handler) RestartTimer() http.HandlerFunc {
	return h.adminAction("httpapi.Handler.RestartTimer", "restart-timer", h.draftService.RestartTimer)
}

func (h *Handler) SkipTurn() http.HandlerFunc {
	return h.adminAction("httpapi.Handler.SkipTurn", "skip", h.draftService.Skip)
}

func (h *Handler) UndoLastEvent() http.HandlerFunc {
	return h.adminAction("httpapi.Handler.UndoLastEvent", "undo", h.draftService.Undo)
}

func (h *Handler) EndDraft() http.HandlerFunc {
	return h.adminAction("httpapi.Handler.EndDraft", "end", h.draftService.End)
}

func (h *Handler) ResetDraft() http.HandlerFunc {
	return h.adminAction("httpapi.Handler.ResetDraft", "reset", h.setupService.Reset)
}

func (h *Handler) AssignPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AssignPlayer")
	defer span.End()

	var req assignPlayerRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	err := h.draftService.AssignPlayer(ctx, req.TeamID, req.PlayerID)
	if err != nil {
		h.logger.InfoContext(ctx, "assign rejected", "team_id", req.TeamID, "player_id", req.PlayerID, "error", err)
	}
	writeActionResult(ctx, w, err)
}

func (h *Handler) UpdateDraftName(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateDraftName")
	defer span.End()

	var req updateDraftNameRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeActionResult(ctx, w, h.setupService.UpdateDraftName(ctx, req.Name))
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateSettings")
	defer span.End()

	var req updateSettingsRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeActionResult(ctx, w, h.setupService.UpdateSettings(ctx, req.SecondsPerPick))
}

func (h *Handler) ImportPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ImportPlayers")
	defer span.End()

	imported, err := h.setupService.ImportPlayers(ctx, io.LimitReader(r.Body, maxImportBodyBytes))
	if err != nil {
		h.logger.WarnContext(ctx, "import players failed", "error", err)
		if _, ok := usecase.RuleMessage(err); ok {
			writeActionResult(ctx, w, err)
			return
		}
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, importResultDTO{Success: true, Imported: imported})
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	teams, err := h.setupService.ListTeams(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamsToAdminDTO(teams))
}

func (h *Handler) UpdateTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateTeams")
	defer span.End()

	var req updateTeamsRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	updates := make([]usecase.TeamUpdate, 0, len(req.Teams))
	for _, t := range req.Teams {
		updates = append(updates, usecase.TeamUpdate{
			ID:            t.ID,
			Name:          t.Name,
			Logo:          t.Logo,
			DraftPosition: t.DraftPosition,
		})
	}

	teams, err := h.setupService.UpdateTeams(ctx, updates)
	if err != nil {
		h.logger.WarnContext(ctx, "update teams failed", "error", err)
		if _, ok := usecase.RuleMessage(err); ok {
			writeActionResult(ctx, w, err)
			return
		}
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamsToAdminDTO(teams))
}

func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAudit")
	defer span.End()

	entries, err := h.setupService.Audit(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list audit failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	if entries == nil {
		entries = []draft.AuditEntry{}
	}

	writeSuccess(ctx, w, http.StatusOK, entries)
}

func (h *Handler) ExportDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ExportDraft")
	defer span.End()

	archive, err := h.exportService.Export(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "export draft failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(archive.Body)))
	if id := requestIDFromContext(ctx); id != "" {
		w.Header().Set(requestIDHeader, id)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(archive.Body); err != nil {
		h.logger.WarnContext(ctx, "write export failed", "error", err)
	}
}

func teamsToAdminDTO(teams []draft.Team) []adminTeamDTO {
	out := make([]adminTeamDTO, 0, len(teams))
	for _, t := range teams {
		out = append(out, adminTeamDTO{
			ID:            t.ID,
			Name:          t.Name,
			DraftPosition: t.DraftPosition,
			Logo:          t.Logo,
			Token:         t.Token,
		})
	}
	return out
}
