package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldCreateHTTPAPISpan(t *testing.T) {
	cases := map[string]bool{
		"httpapi.Handler.MakePick":    true,
		"httpapi.Handler.ExportDraft": true,
		"httpapi.RequireAdmin":        true,
		"httpapi.RequireTeam":         true,
		"httpapi.RequestLogging":      false,
		"httpapi.writeError":          false,
		"":                            false,
	}
	for name, want := range cases {
		assert.Equalf(t, want, shouldCreateHTTPAPISpan(name), "span %q", name)
	}
}
