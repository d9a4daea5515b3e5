package usecase

import (
	"errors"
	"testing"
)

func TestAuthService_AuthenticateTeam(t *testing.T) {
	t.Parallel()

	h := newDraftHarness(t, 3, "", nil)
	svc := NewAuthService(h.uow)

	// Admin token is configured, so team tokens start at token-01.
	team, err := svc.AuthenticateTeam(t.Context(), " token-02 ")
	if err != nil {
		t.Fatalf("authenticate team: %v", err)
	}
	if team.ID != 2 {
		t.Fatalf("unexpected team: %+v", team)
	}

	for _, token := range []string{"", "token-99", testAdminToken} {
		if _, err := svc.AuthenticateTeam(t.Context(), token); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("token %q: expected unauthorized, got %v", token, err)
		}
	}
}

func TestAuthService_AuthenticateAdmin(t *testing.T) {
	t.Parallel()

	h := newDraftHarness(t, 2, "", nil)
	svc := NewAuthService(h.uow)

	if err := svc.AuthenticateAdmin(t.Context(), testAdminToken); err != nil {
		t.Fatalf("authenticate admin: %v", err)
	}
	for _, token := range []string{"", "token-01", testAdminToken + "x"} {
		if err := svc.AuthenticateAdmin(t.Context(), token); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("token %q: expected unauthorized, got %v", token, err)
		}
	}
}
