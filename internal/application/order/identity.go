package order

import (
	"context"
	"fmt"
	"time"

	domain "storefront/internal/domain/order"
	"storefront/internal/domain/repository"
)

// NumberGenerator issues human-readable order numbers from a shared sequence.
type NumberGenerator struct {
	seq     repository.Sequence
	prefix  string
	timeout time.Duration
}

func NewNumberGenerator(seq repository.Sequence, prefix string, timeout time.Duration) *NumberGenerator {
	return &NumberGenerator{seq: seq, prefix: prefix, timeout: timeout}
}

// Next returns a number never handed out before. Every failure is reported
// as domain.ErrIdentityGenerationFailed.
func (g *NumberGenerator) Next(ctx context.Context) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	seq, err := g.seq.NextOrderSequence(callCtx)
	if err != nil {
		return "", fmt.Errorf("next order sequence: %w: %w", domain.ErrIdentityGenerationFailed, err)
	}
	return domain.FormatNumber(g.prefix, seq)
}
