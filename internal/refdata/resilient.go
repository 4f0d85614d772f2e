package refdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/icsr-triage-engine/internal/domain"
)

// Resilient guards a remote provider with a circuit breaker. ErrNoEntry is a
// normal answer and never counts as a failure; once the breaker opens,
// lookups fail fast and the listedness assessment degrades the affected
// events instead of stalling the batch.
type Resilient struct {
	inner   domain.ReferenceProvider
	breaker *gobreaker.CircuitBreaker
}

// BreakerConfig tunes the circuit breaker. Zero values get defaults.
type BreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

// NewResilient wraps inner with a named circuit breaker.
func NewResilient(inner domain.ReferenceProvider, cfg BreakerConfig, logger *logrus.Logger) *Resilient {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 3
	}
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}

	settings := gobreaker.Settings{
		Name:        "ReferenceProvider",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from,
				"to_state":        to,
			}).Warn("Circuit breaker state changed")
		},
	}

	return &Resilient{inner: inner, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// Lookup implements domain.ReferenceProvider.
func (r *Resilient) Lookup(ctx context.Context, drugName string) (*domain.ReferenceEntry, error) {
	result, err := r.breaker.Execute(func() (interface{}, error) {
		entry, err := r.inner.Lookup(ctx, drugName)
		if errors.Is(err, domain.ErrNoEntry) {
			// A miss is a valid answer, not a backend failure.
			return nil, nil
		}
		return entry, err
	})
	if err != nil {
		return nil, fmt.Errorf("reference lookup failed: %w", err)
	}
	if result == nil {
		return nil, domain.ErrNoEntry
	}
	return result.(*domain.ReferenceEntry), nil
}
