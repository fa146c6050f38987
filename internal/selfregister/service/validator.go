package service

import (
	"strings"

	"selfreg/internal/selfregister/models"
)

// Validate checks the preconditions of a lite registration. The platform
// policy is checked before the payload, so a deployment without
// email-as-username reports the policy failure for every request.
// A nil request is treated as absent.
func Validate(req *models.RegistrationRequest, emailAsUsernameEnabled bool) *models.Failure {
	if !emailAsUsernameEnabled {
		return models.NewClientError(models.CodeUnsupportedLiteRequest, models.MsgUnsupportedLiteRequest)
	}
	if req == nil || strings.TrimSpace(req.Email) == "" {
		return models.NewClientError(models.CodeBadSelfRegisterRequest, models.MsgBadSelfRegisterRequest)
	}
	return nil
}
