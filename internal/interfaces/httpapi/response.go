package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
	"github.com/riskibarqy/starleague-draft/internal/usecase"
)

const (
	apiVersion  = "2.0"
	errorDomain = "starleague-draft"
)

// envelope follows the Google JSON style guide: exactly one of data or error.
type envelope struct {
	APIVersion string     `json:"apiVersion"`
	Data       any        `json:"data,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Status  string      `json:"status"`
	Errors  []errorItem `json:"errors,omitempty"`
}

type errorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type errorClass struct {
	target error
	code   int
	reason string
	status string
}

// errorClasses is matched in order; the first errors.Is hit wins.
var errorClasses = []errorClass{
	{usecase.ErrInvalidInput, http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"},
	{usecase.ErrNotFound, http.StatusNotFound, "notFound", "NOT_FOUND"},
	{usecase.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"},
	{usecase.ErrDependencyUnavailable, http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"},
	{draft.ErrRuleViolation, http.StatusConflict, "draftRuleViolation", "FAILED_PRECONDITION"},
}

var internalErrorClass = errorClass{code: http.StatusInternalServerError, reason: "internalError", status: "INTERNAL"}

// actionResultDTO is the body of every draft action.
type actionResultDTO struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	if id := requestIDFromContext(ctx); id != "" {
		h.Set(requestIDHeader, id)
	}
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(ctx, w, status, envelope{APIVersion: apiVersion, Data: data})
}

// writeActionResult answers a draft action: 200 on success, 409 with the rule
// message when the engine rejected it, the error envelope otherwise.
func writeActionResult(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		writeSuccess(ctx, w, http.StatusOK, actionResultDTO{Success: true})
		return
	}
	if msg, ok := usecase.RuleMessage(err); ok {
		writeSuccess(ctx, w, http.StatusConflict, actionResultDTO{Error: msg})
		return
	}
	writeError(ctx, w, err)
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	class := classifyError(err)
	msg := err.Error()
	if class.code == http.StatusInternalServerError {
		msg = "internal server error"
	}

	writeJSON(ctx, w, class.code, envelope{
		APIVersion: apiVersion,
		Error: &errorBody{
			Code:    class.code,
			Message: msg,
			Status:  class.status,
			Errors:  []errorItem{{Domain: errorDomain, Reason: class.reason, Message: msg}},
		},
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	writeError(ctx, w, errors.New("internal server error"))
}

func classifyError(err error) errorClass {
	for _, c := range errorClasses {
		if errors.Is(err, c.target) {
			return c
		}
	}
	return internalErrorClass
}
