package id

import (
	"encoding/base64"
	"testing"
)

func TestRandomGenerator_NewToken(t *testing.T) {
	t.Parallel()

	gen := NewRandomGenerator()
	seen := make(map[string]struct{}, 64)
	for i := 0; i < 64; i++ {
		token, err := gen.NewToken()
		if err != nil {
			t.Fatalf("new token: %v", err)
		}
		raw, err := base64.RawURLEncoding.DecodeString(token)
		if err != nil {
			t.Fatalf("token is not url-safe base64: %v", err)
		}
		if len(raw) != defaultTokenBytes {
			t.Fatalf("unexpected token size: got=%d want=%d", len(raw), defaultTokenBytes)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token %q", token)
		}
		seen[token] = struct{}{}
	}
}

func TestNewRandomGeneratorSize_FloorsSmallSizes(t *testing.T) {
	t.Parallel()

	if got := NewRandomGeneratorSize(4).size; got != defaultTokenBytes {
		t.Fatalf("expected default size for small input, got %d", got)
	}
	if got := NewRandomGeneratorSize(32).size; got != 32 {
		t.Fatalf("expected size 32, got %d", got)
	}
}
