// Package accountid generates customer account identifiers of the form
// prefix + local minute timestamp (yyyyMMddHHmm) + 3-digit random suffix.
package accountid

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	DefaultPrefix = "6214"

	timestampLayout = "200601021504"
	suffixMin       = 100
	suffixMax       = 999
)

type Generator struct {
	prefix string
	now    func() time.Time
	suffix func() (int64, error)
}

type Option func(*Generator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithSuffixSource overrides the random suffix source.
func WithSuffixSource(fn func() (int64, error)) Option {
	return func(g *Generator) { g.suffix = fn }
}

func New(prefix string, opts ...Option) *Generator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	g := &Generator{
		prefix: prefix,
		now:    time.Now,
		suffix: randomSuffix,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate collides when two ids are produced in the same minute with the
// same suffix; the account store reports that as a retryable conflict.
func (g *Generator) Generate() (string, error) {
	n, err := g.suffix()
	if err != nil {
		return "", fmt.Errorf("Generate: %w", err)
	}
	if n < suffixMin || n > suffixMax {
		return "", fmt.Errorf("Generate: suffix %d outside [%d, %d]", n, suffixMin, suffixMax)
	}
	return fmt.Sprintf("%s%s%03d", g.prefix, g.now().Local().Format(timestampLayout), n), nil
}

// Valid reports whether id has this generator's shape.
func (g *Generator) Valid(id string) bool {
	if len(id) != len(g.prefix)+len(timestampLayout)+3 {
		return false
	}
	if !strings.HasPrefix(id, g.prefix) {
		return false
	}
	for _, c := range id {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func randomSuffix() (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(suffixMax-suffixMin+1))
	if err != nil {
		return 0, fmt.Errorf("randomSuffix: %w", err)
	}
	return suffixMin + n.Int64(), nil
}
