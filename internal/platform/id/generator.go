package id

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const defaultTokenBytes = 24

// Generator creates opaque bearer tokens for teams and the admin.
type Generator interface {
	NewToken() (string, error)
}

type RandomGenerator struct {
	size int
}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{size: defaultTokenBytes}
}

// NewRandomGeneratorSize draws size random bytes per token; values below 16 use the default.
func NewRandomGeneratorSize(size int) *RandomGenerator {
	if size < 16 {
		size = defaultTokenBytes
	}
	return &RandomGenerator{size: size}
}

func (g *RandomGenerator) NewToken() (string, error) {
	size := g.size
	if size == 0 {
		size = defaultTokenBytes
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
