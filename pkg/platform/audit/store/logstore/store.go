// Package logstore is an audit.Store that writes events as structured log
// lines. It is the default sink when no Kafka brokers are configured.
package logstore

import (
	"context"
	"log/slog"

	audit "selfreg/pkg/platform/audit"
)

type Store struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Store {
	return &Store{logger: logger}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	s.logger.InfoContext(ctx, "audit event",
		"log_type", "audit",
		"category", string(event.Category),
		"action", event.Action,
		"subject", event.Subject,
		"tenant_domain", event.TenantDomain,
		"user_store_domain", event.UserStoreDomain,
		"decision", event.Decision,
		"reason", event.Reason,
		"request_id", event.RequestID,
		"client_ip", event.ClientIP,
		"user_agent", event.UserAgent,
		"timestamp", event.Timestamp,
	)
	return nil
}
