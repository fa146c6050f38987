package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"selfreg/pkg/domain"
)

func TestAccessorsReturnZeroValuesWhenUnset(t *testing.T) {
	ctx := context.Background()

	assert.True(t, TenantDomain(ctx).IsBlank())
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, ClientIP(ctx))
	assert.Empty(t, UserAgent(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
}

func TestAccessorsRoundTrip(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	ctx = WithTenantDomain(ctx, domain.TenantDomain("acme.com"))
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTime(ctx, fixed)
	ctx = WithClientMetadata(ctx, "10.0.0.1", "Firefox/120.0 (Linux)")

	assert.Equal(t, domain.TenantDomain("acme.com"), TenantDomain(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, fixed, Now(ctx))
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
	assert.Equal(t, "Firefox/120.0 (Linux)", UserAgent(ctx))
}
