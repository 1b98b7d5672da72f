package idgen

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Alphabet omits 0, O, 1 and I so ids survive being read aloud or retyped.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const BodyLength = 8

// Generator produces prefixed ids such as "ND7KX2M9QA".
type Generator interface {
	New(prefix string) (string, error)
}

type RandomGenerator struct {
	source io.Reader
}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{source: rand.Reader}
}

// NewRandomGeneratorFrom reads entropy from source instead of crypto/rand.
func NewRandomGeneratorFrom(source io.Reader) *RandomGenerator {
	return &RandomGenerator{source: source}
}

func (g *RandomGenerator) New(prefix string) (string, error) {
	buf := make([]byte, BodyLength)
	if _, err := io.ReadFull(g.source, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	// 256 is a multiple of len(Alphabet), so the modulo is unbiased.
	out := make([]byte, 0, len(prefix)+BodyLength)
	out = append(out, prefix...)
	for _, b := range buf {
		out = append(out, Alphabet[int(b)%len(Alphabet)])
	}

	return string(out), nil
}
