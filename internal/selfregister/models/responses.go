package models

// ResponseKind tags the four success body shapes.
type ResponseKind int

const (
	// ResponseEmpty has no body.
	ResponseEmpty ResponseKind = iota
	// ResponseLegacyText carries the recovery id as a plain-text body.
	ResponseLegacyText
	// ResponseInternalDetailed carries a SuccessfulUserCreation object.
	ResponseInternalDetailed
	// ResponseExternalDetailed carries a SuccessfulUserCreationExternal object.
	ResponseExternalDetailed
)

func (k ResponseKind) String() string {
	switch k {
	case ResponseLegacyText:
		return "legacy_text"
	case ResponseInternalDetailed:
		return "internal_detailed"
	case ResponseExternalDetailed:
		return "external_detailed"
	default:
		return "empty"
	}
}

// SuccessfulUserCreation is the detailed body for internally managed notifications.
type SuccessfulUserCreation struct {
	Code                string `json:"code"`
	Message             string `json:"message"`
	NotificationChannel string `json:"notificationChannel"`
}

// SuccessfulUserCreationExternal is the detailed body when the caller must
// deliver the confirmation code itself.
type SuccessfulUserCreationExternal struct {
	SuccessfulUserCreation
	ConfirmationCode string `json:"confirmationCode"`
}

// ResponseBody is a composed success response. Exactly one of Text or Entity is
// meaningful, selected by Kind; ResponseEmpty uses neither.
type ResponseBody struct {
	Kind   ResponseKind
	Text   string
	Entity any
}

// EmptyResponse is the body-less success response.
func EmptyResponse() ResponseBody {
	return ResponseBody{Kind: ResponseEmpty}
}
