// Package fallback guards a primary audit.Store with a circuit breaker and a
// secondary store, so broker outages degrade audit delivery instead of failing
// registrations.
package fallback

import (
	"context"
	"log/slog"

	audit "selfreg/pkg/platform/audit"
	"selfreg/pkg/platform/circuit"
)

type Store struct {
	primary  audit.Store
	fallback audit.Store
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func New(primary, fallback audit.Store, breaker *circuit.Breaker, logger *slog.Logger) *Store {
	return &Store{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

// Append writes to the primary. Failed writes go to the fallback. While the
// circuit is open every event is written to the fallback and the primary is
// still probed so the circuit can close.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if s.breaker.IsOpen() {
		fallbackErr := s.fallback.Append(ctx, event)
		if err := s.primary.Append(ctx, event); err != nil {
			s.breaker.RecordFailure()
			return fallbackErr
		}
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.InfoContext(ctx, "audit store recovered", "breaker", s.breaker.Name())
		}
		return nil
	}

	if err := s.primary.Append(ctx, event); err != nil {
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.logger.WarnContext(ctx, "audit store degraded, using fallback",
				"breaker", s.breaker.Name(),
				"error", err,
			)
		}
		return s.fallback.Append(ctx, event)
	}
	s.breaker.RecordSuccess()
	return nil
}
