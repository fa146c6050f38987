package service

import (
	"selfreg/internal/selfregister/models"
	"selfreg/pkg/domain"
)

// IdentityResolver derives the identity a registration is created under.
type IdentityResolver struct {
	superTenant   domain.TenantDomain
	primaryDomain domain.UserStoreDomain
}

// NewIdentityResolver builds a resolver with the platform defaults. Blank
// defaults fall back to the built-in super tenant and primary domain.
func NewIdentityResolver(superTenant domain.TenantDomain, primaryDomain domain.UserStoreDomain) IdentityResolver {
	return IdentityResolver{
		superTenant:   superTenant.OrDefault(domain.SuperTenantDomain),
		primaryDomain: primaryDomain.OrDefault(domain.PrimaryUserStoreDomain),
	}
}

// Resolve is total: the returned tenant and user store domains are never
// blank. The email is used verbatim as the username.
func (r IdentityResolver) Resolve(req *models.RegistrationRequest, ambientTenant domain.TenantDomain) models.ResolvedIdentity {
	superTenant := r.superTenant.OrDefault(domain.SuperTenantDomain)
	primaryDomain := r.primaryDomain.OrDefault(domain.PrimaryUserStoreDomain)

	identity := models.ResolvedIdentity{
		TenantDomain:    ambientTenant.OrDefault(superTenant),
		UserStoreDomain: primaryDomain,
	}
	if req != nil {
		identity.UserStoreDomain = domain.UserStoreDomain(req.Realm).OrDefault(primaryDomain)
		identity.Username = req.Email
	}
	return identity
}
