package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTenantDomainOrDefault(t *testing.T) {
	assert.Equal(t, SuperTenantDomain, TenantDomain("").OrDefault(SuperTenantDomain))
	assert.Equal(t, SuperTenantDomain, TenantDomain("  \t").OrDefault(SuperTenantDomain))
	assert.Equal(t, TenantDomain("acme.com"), TenantDomain("acme.com").OrDefault(SuperTenantDomain))
}

func TestUserStoreDomainOrDefault(t *testing.T) {
	assert.Equal(t, PrimaryUserStoreDomain, UserStoreDomain("").OrDefault(PrimaryUserStoreDomain))
	assert.Equal(t, UserStoreDomain("r1"), UserStoreDomain("r1").OrDefault(PrimaryUserStoreDomain))
}

func TestUserStoreDomainEqualFold(t *testing.T) {
	assert.True(t, UserStoreDomain("primary").EqualFold(PrimaryUserStoreDomain))
	assert.False(t, UserStoreDomain("SECONDARY").EqualFold(PrimaryUserStoreDomain))
}
