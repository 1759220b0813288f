package idgen

import (
	"context"
	"errors"
	"fmt"

	"github.com/Siddarth2230/url-mapping-service/pkg/metrics"
)

// MaxCodeLen is the longest short code Generate returns.
const MaxCodeLen = 10

// ErrGenExhausted is returned when every attempt produced a code already in use.
var ErrGenExhausted = errors.New("failed to generate unique short code after retries")

// Generator defines the interface for generating short codes.
type Generator interface {
	Generate(ctx context.Context) (string, error)
}

// UsageChecker reports whether a short code is already assigned.
type UsageChecker interface {
	ExistsByShortURL(ctx context.Context, shortURL string) (bool, error)
}

// CodeGenerator turns counter values into unused short codes.
type CodeGenerator struct {
	counter     Counter
	checker     UsageChecker
	maxAttempts int
}

// NewCodeGenerator returns a generator drawing from counter and rejecting
// codes checker reports as taken. maxAttempts <= 0 disables the attempt cap.
func NewCodeGenerator(counter Counter, checker UsageChecker, maxAttempts int) *CodeGenerator {
	return &CodeGenerator{
		counter:     counter,
		checker:     checker,
		maxAttempts: maxAttempts,
	}
}

// Generate draws counter values until the encoded, truncated candidate is
// unused. The counter strictly increases, so each attempt sees a new value.
func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for attempt := 1; g.maxAttempts <= 0 || attempt <= g.maxAttempts; attempt++ {
		n, err := g.counter.NextValue(ctx)
		if err != nil {
			return "", err
		}
		code := Reduce(Encode(n))

		exists, err := g.checker.ExistsByShortURL(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check short code %s: %w", code, err)
		}
		if !exists {
			return code, nil
		}
		metrics.CodeCollisions.Inc()
	}
	return "", ErrGenExhausted
}

// Reduce truncates s to MaxCodeLen characters. Shorter input, including the
// empty string, is returned unchanged.
func Reduce(s string) string {
	if len(s) <= MaxCodeLen {
		return s
	}
	return s[:MaxCodeLen]
}
