// Package observability provides audit logging helpers for the ratelimit module.
package observability

import (
	"context"
	"log/slog"

	"selfreg/pkg/attrs"
	"selfreg/pkg/platform/audit"
	"selfreg/pkg/requestcontext"
)

// AuditPublisher receives security events raised by the limiter.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LogAudit logs audit events to both structured logger and audit publisher.
// It enriches events with request ID and extracts subject/reason from attrList.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, event audit.AuditEvent, attrList ...any) {
	requestID := requestcontext.RequestID(ctx)

	if requestID != "" {
		attrList = append(attrList, "request_id", requestID)
	}

	args := append(attrList, "event", string(event), "log_type", "audit")

	if logger != nil {
		logger.InfoContext(ctx, string(event), args...)
	}

	if publisher == nil {
		return
	}

	_ = publisher.Emit(ctx, audit.Event{
		Action:       string(event),
		Subject:      attrs.ExtractString(attrList, "ip"),
		TenantDomain: requestcontext.TenantDomain(ctx).String(),
		Decision:     "rejected",
		Reason:       attrs.ExtractString(attrList, "reason"),
		RequestID:    requestID,
		ClientIP:     requestcontext.ClientIP(ctx),
		UserAgent:    requestcontext.UserAgent(ctx),
	})
}
