package history

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/clif-c-of-mcp-server/internal/domain"
)

// BreakerStorage guards a remote Storage with a circuit breaker so an
// unreachable backend fails fast instead of stalling every evaluation.
type BreakerStorage struct {
	next    Storage
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerStorage wraps next. A missing key is not a failure.
func NewBreakerStorage(name string, next Storage, cfg domain.BreakerConfig, logger *logrus.Logger) *BreakerStorage {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 3
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("History storage circuit breaker changed state")
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrNotFound)
		},
	}

	return &BreakerStorage{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// State reports the breaker state.
func (b *BreakerStorage) State() gobreaker.State {
	return b.breaker.State()
}

func (b *BreakerStorage) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.Get(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (b *BreakerStorage) Set(ctx context.Context, key string, value []byte) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.next.Set(ctx, key, value)
	})
	return err
}

func (b *BreakerStorage) Close() error {
	return b.next.Close()
}

// defaultBreakerConfig fills unset breaker settings.
func defaultBreakerConfig(cfg domain.BreakerConfig) domain.BreakerConfig {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Interval == 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg
}
