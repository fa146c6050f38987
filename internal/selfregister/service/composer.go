package service

import "selfreg/internal/selfregister/models"

// Compose builds the success body.
//
// With detailed responses on, the outcome is returned as an object, carrying
// the recovery id as confirmationCode for the external channel. With them
// off, only the external channel gets a body: the bare recovery id as text.
// A missing outcome always yields the empty response.
func Compose(outcome *models.RegistrationOutcome, detailedResponseEnabled bool) models.ResponseBody {
	if outcome == nil {
		return models.EmptyResponse()
	}

	if detailedResponseEnabled {
		created := models.SuccessfulUserCreation{
			Code:                outcome.Code,
			Message:             outcome.Message,
			NotificationChannel: outcome.NotificationChannel.String(),
		}
		if outcome.NotificationChannel.IsExternal() {
			return models.ResponseBody{
				Kind: models.ResponseExternalDetailed,
				Entity: models.SuccessfulUserCreationExternal{
					SuccessfulUserCreation: created,
					ConfirmationCode:       outcome.RecoveryID,
				},
			}
		}
		return models.ResponseBody{Kind: models.ResponseInternalDetailed, Entity: created}
	}

	if outcome.NotificationChannel.IsExternal() {
		return models.ResponseBody{Kind: models.ResponseLegacyText, Text: outcome.RecoveryID}
	}
	return models.EmptyResponse()
}
