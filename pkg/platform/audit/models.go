package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance,
	// e.g. a user record being created.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to abuse monitoring, e.g.
	// rejected or rate-limited registrations.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity that can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category        EventCategory `json:"category"`
	Timestamp       time.Time     `json:"timestamp"`
	Subject         string        `json:"subject"`
	TenantDomain    string        `json:"tenant_domain,omitempty"`
	UserStoreDomain string        `json:"user_store_domain,omitempty"`
	Action          string        `json:"action"`
	Decision        string        `json:"decision,omitempty"`
	Reason          string        `json:"reason,omitempty"`
	RequestID       string        `json:"request_id,omitempty"`
	ClientIP        string        `json:"client_ip,omitempty"`
	UserAgent       string        `json:"user_agent,omitempty"`
}

type AuditEvent string

const (
	EventUserSelfRegistered     AuditEvent = "user_self_registered"
	EventSelfRegistrationFailed AuditEvent = "self_registration_failed"
	EventSelfRegistrationDenied AuditEvent = "self_registration_denied"
	EventRateLimitExceeded      AuditEvent = "rate_limit_exceeded"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUserSelfRegistered:     CategoryCompliance,
	EventSelfRegistrationDenied: CategorySecurity,
	EventRateLimitExceeded:      CategorySecurity,
	EventSelfRegistrationFailed: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader lists persisted audit events for a subject.
type Reader interface {
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}
