package models

import (
	"strings"
	"time"

	"selfreg/pkg/domain"
)

// Property is one opaque key/value claim supplied with a registration.
// Order is preserved end to end.
type Property struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RegistrationRequest is the lite self-registration payload.
type RegistrationRequest struct {
	Email      string     `json:"email"`
	Realm      string     `json:"realm,omitempty"`
	Properties []Property `json:"properties,omitempty"`
}

// ResolvedIdentity is the canonical identity a registration is created under.
//
// Invariants:
//   - TenantDomain and UserStoreDomain are never blank once resolved
//   - Username equals the request email verbatim
type ResolvedIdentity struct {
	TenantDomain    domain.TenantDomain
	UserStoreDomain domain.UserStoreDomain
	Username        string
}

// NotificationChannel says who delivers the post-registration confirmation.
type NotificationChannel string

const (
	// ChannelInternal means the platform sends the confirmation itself.
	ChannelInternal NotificationChannel = "INTERNAL"
	// ChannelExternal means the caller must deliver the confirmation code.
	ChannelExternal NotificationChannel = "EXTERNAL"
)

func (c NotificationChannel) String() string { return string(c) }

// IsExternal reports whether confirmation delivery is left to the caller.
func (c NotificationChannel) IsExternal() bool { return c == ChannelExternal }

// RegistrationOutcome is what the gateway returns on success. RecoveryID is only
// meaningful for the external channel.
type RegistrationOutcome struct {
	Code                string
	Message             string
	NotificationChannel NotificationChannel
	RecoveryID          string
}

// PendingRegistration is the record the registration manager persists while
// the account awaits confirmation.
type PendingRegistration struct {
	Identity            ResolvedIdentity
	Properties          []Property
	RecoveryID          string
	NotificationChannel NotificationChannel
	CreatedAt           time.Time
}

// QualifiedUsername renders the identity as DOMAIN/username@tenant. User store
// domains compare case-insensitively, so the domain is upper-cased.
func (i ResolvedIdentity) QualifiedUsername() string {
	return strings.ToUpper(i.UserStoreDomain.String()) + "/" + i.Username + "@" + i.TenantDomain.String()
}
