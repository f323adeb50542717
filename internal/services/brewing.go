package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/jcmexdev/coffee-sagas/internal/domain"
)

// BrewService prepares drinks. It models a flaky downstream dependency:
// each attempt fails with the configured probability, which is what
// exercises the engine's retry policy. Randomness lives here and only
// here — never in the workflow, whose transitions must replay
// deterministically.
type BrewService struct {
	failureRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewBrewService creates a brewer failing at failureRate (0 never, 1
// always). The seed makes failure sequences reproducible in tests.
func NewBrewService(failureRate float64, seed int64) *BrewService {
	return &BrewService{
		failureRate: failureRate,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (s *BrewService) Brew(ctx context.Context, in domain.BrewInput) error {
	s.mu.Lock()
	jammed := s.rng.Float64() < s.failureRate
	s.mu.Unlock()

	if jammed {
		return fmt.Errorf("brew machine jammed for order %s", in.OrderID)
	}

	slog.InfoContext(ctx, "brew complete", "order_id", in.OrderID, "drink", in.Drink, "size", in.Size)
	return nil
}
