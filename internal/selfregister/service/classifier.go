package service

import (
	"errors"

	"selfreg/internal/selfregister/models"
)

// Classify maps a gateway error onto the failure callers observe. Errors that
// are not a GatewayError, and unknown kinds, are folded into the generic
// server error so no internal detail reaches the caller.
func Classify(err error) *models.Failure {
	var gwErr *models.GatewayError
	if !errors.As(err, &gwErr) || gwErr == nil {
		return unexpectedFailure()
	}

	switch gwErr.Kind {
	case models.ClientFailure:
		if gwErr.Code == models.CodeUserAlreadyExists {
			return models.NewConflict(gwErr.Code, gwErr.Message)
		}
		return models.NewClientError(gwErr.Code, gwErr.Message)
	case models.DomainFailure:
		// keep the code, never the gateway's own message
		return models.NewServerError(gwErr.Code, models.MsgServerError)
	case models.UnexpectedFailure:
		return unexpectedFailure()
	default:
		return unexpectedFailure()
	}
}

func unexpectedFailure() *models.Failure {
	return models.NewServerError(models.CodeUnexpected, models.MsgServerError)
}
