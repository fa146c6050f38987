package config

// Property keys read per request from the identity property source.
const (
	PropertyDetailedAPIResponse           = "SelfRegistration.EnableDetailedApiResponse"
	PropertySelfRegistrationEnabled       = "SelfRegistration.Enable"
	PropertyNotificationInternallyManaged = "SelfRegistration.Notification.InternallyManaged"
)

// Settings is the typed view of registration policy that services consume.
// Property-backed values are re-read on every call so file reloads apply to
// the next request.
type Settings struct {
	emailAsUsername bool
	props           *Properties
}

func NewSettings(emailAsUsername bool, props *Properties) *Settings {
	if props == nil {
		props = NewProperties(nil)
	}
	return &Settings{emailAsUsername: emailAsUsername, props: props}
}

// EmailAsUsernameEnabled reports the platform-wide email-as-username policy.
func (s *Settings) EmailAsUsernameEnabled() bool {
	return s.emailAsUsername
}

// DetailedResponseEnabled defaults to false when unset or unparsable.
func (s *Settings) DetailedResponseEnabled() bool {
	return s.props.Bool(PropertyDetailedAPIResponse, false)
}

// SelfRegistrationEnabled defaults to true.
func (s *Settings) SelfRegistrationEnabled() bool {
	return s.props.Bool(PropertySelfRegistrationEnabled, true)
}

// NotificationsInternallyManaged defaults to true: the platform sends the
// confirmation itself unless told otherwise.
func (s *Settings) NotificationsInternallyManaged() bool {
	return s.props.Bool(PropertyNotificationInternallyManaged, true)
}
