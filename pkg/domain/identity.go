package domain

import "strings"

// Platform-wide partition defaults. A registration that names neither a tenant
// nor a realm lands in the super tenant's primary user store.
const (
	SuperTenantDomain      TenantDomain    = "carbon.super"
	PrimaryUserStoreDomain UserStoreDomain = "PRIMARY"
)

// TenantDomain names the tenant that owns a user record.
type TenantDomain string

// UserStoreDomain names the user store (realm) inside a tenant.
type UserStoreDomain string

func (t TenantDomain) String() string { return string(t) }

// IsBlank reports whether the domain is empty or whitespace only.
func (t TenantDomain) IsBlank() bool { return strings.TrimSpace(string(t)) == "" }

// OrDefault returns t unless it is blank, in which case def is returned.
func (t TenantDomain) OrDefault(def TenantDomain) TenantDomain {
	if t.IsBlank() {
		return def
	}
	return t
}

func (u UserStoreDomain) String() string { return string(u) }

// IsBlank reports whether the domain is empty or whitespace only.
func (u UserStoreDomain) IsBlank() bool { return strings.TrimSpace(string(u)) == "" }

// OrDefault returns u unless it is blank, in which case def is returned.
func (u UserStoreDomain) OrDefault(def UserStoreDomain) UserStoreDomain {
	if u.IsBlank() {
		return def
	}
	return u
}

// EqualFold compares user store domains case-insensitively, matching how
// realms are looked up by the registration manager.
func (u UserStoreDomain) EqualFold(other UserStoreDomain) bool {
	return strings.EqualFold(string(u), string(other))
}
