// Package identifier draws short booking codes and claims them in the store.
package identifier

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/Domenick1991/flightbooker/internal/domain"
)

type Kind string

const (
	KindPNR Kind = "PNR"
	KindPIN Kind = "PIN"
)

const (
	pnrAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	pinAlphabet = "0123456789"
	codeLength  = 6

	defaultMaxAttempts = 32
)

// ErrExhausted is a code collision: a new transaction may draw a free code.
var ErrExhausted = fmt.Errorf("%w: no free code found", domain.ErrCodeTaken)

// Claimer atomically reserves a code of the given kind. It reports false when
// the code is already taken; the reservation is part of the caller's
// transaction.
type Claimer interface {
	ClaimCode(ctx context.Context, kind Kind, code string) (bool, error)
}

type Generator struct {
	kind        Kind
	alphabet    string
	length      int
	maxAttempts int
	intN        func(n int) int
}

type Option func(*Generator)

func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithRand replaces the random index source, mostly for tests.
func WithRand(intN func(n int) int) Option {
	return func(g *Generator) {
		g.intN = intN
	}
}

func NewPNRGenerator(opts ...Option) *Generator {
	return newGenerator(KindPNR, pnrAlphabet, opts)
}

func NewPINGenerator(opts ...Option) *Generator {
	return newGenerator(KindPIN, pinAlphabet, opts)
}

func newGenerator(kind Kind, alphabet string, opts []Option) *Generator {
	g := &Generator{
		kind:        kind,
		alphabet:    alphabet,
		length:      codeLength,
		maxAttempts: defaultMaxAttempts,
		intN:        rand.IntN,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Kind() Kind {
	return g.kind
}

// Candidate draws a code without checking it against the store.
func (g *Generator) Candidate() string {
	var b strings.Builder
	b.Grow(g.length)
	for i := 0; i < g.length; i++ {
		b.WriteByte(g.alphabet[g.intN(len(g.alphabet))])
	}
	return b.String()
}

// Claim draws candidates until the claimer accepts one.
func (g *Generator) Claim(ctx context.Context, c Claimer) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code := g.Candidate()
		ok, err := c.ClaimCode(ctx, g.kind, code)
		if err != nil {
			return "", fmt.Errorf("claim %s %s: %w", g.kind, code, err)
		}
		if ok {
			return code, nil
		}
	}
	return "", fmt.Errorf("%s after %d attempts: %w", g.kind, g.maxAttempts, ErrExhausted)
}

// Valid reports whether code could have been produced by the generator.
func (g *Generator) Valid(code string) bool {
	if len(code) != g.length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(g.alphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
