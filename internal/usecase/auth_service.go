package usecase

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
)

// AuthService resolves bearer tokens against the stored draft.
type AuthService struct {
	uow draft.UnitOfWork
}

func NewAuthService(uow draft.UnitOfWork) *AuthService {
	return &AuthService{uow: uow}
}

// AuthenticateTeam returns the team owning token. Every team token is compared
// so the lookup time does not depend on which team matched.
func (s *AuthService) AuthenticateTeam(ctx context.Context, token string) (draft.Team, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return draft.Team{}, fmt.Errorf("%w: team token is required", ErrUnauthorized)
	}

	var (
		found draft.Team
		match bool
	)
	err := s.uow.View(ctx, func(ctx context.Context, repo draft.Repository) error {
		teams, err := repo.GetTeams(ctx)
		if err != nil {
			return fmt.Errorf("load teams: %w", err)
		}
		for _, t := range teams {
			if tokensEqual(t.Token, token) {
				found = t
				match = true
			}
		}
		return nil
	})
	if err != nil {
		return draft.Team{}, err
	}
	if !match {
		return draft.Team{}, fmt.Errorf("%w: invalid team token", ErrUnauthorized)
	}
	return found, nil
}

func (s *AuthService) AuthenticateAdmin(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: admin token is required", ErrUnauthorized)
	}

	var ok bool
	err := s.uow.View(ctx, func(ctx context.Context, repo draft.Repository) error {
		session, err := loadSession(ctx, repo)
		if err != nil {
			return err
		}
		ok = tokensEqual(session.AdminToken, token)
		return nil
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: invalid admin token", ErrUnauthorized)
	}
	return nil
}

func tokensEqual(stored, given string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
