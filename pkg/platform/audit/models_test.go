package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditEventCategory(t *testing.T) {
	assert.Equal(t, CategoryCompliance, EventUserSelfRegistered.Category())
	assert.Equal(t, CategorySecurity, EventSelfRegistrationDenied.Category())
	assert.Equal(t, CategorySecurity, EventRateLimitExceeded.Category())
	assert.Equal(t, CategoryOperations, EventSelfRegistrationFailed.Category())
	assert.Equal(t, CategoryOperations, AuditEvent("something_else").Category())
}
