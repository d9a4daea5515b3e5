package httpapi

import (
	"context"

	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
)

type contextKey string

const (
	teamContextKey      contextKey = "draft_team"
	requestIDContextKey contextKey = "request_id"
)

func withTeam(ctx context.Context, team draft.Team) context.Context {
	return context.WithValue(ctx, teamContextKey, team)
}

func teamFromContext(ctx context.Context) (draft.Team, bool) {
	team, ok := ctx.Value(teamContextKey).(draft.Team)
	return team, ok
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
