package enums

import "fmt"

// WebhookStatus tracks the processing outcome of a logged gateway event.
type WebhookStatus string

const (
	WebhookStatusProcessing WebhookStatus = "PROCESSING"
	WebhookStatusSuccess    WebhookStatus = "SUCCESS"
	WebhookStatusFailed     WebhookStatus = "FAILED"
)

var validWebhookStatuses = []WebhookStatus{
	WebhookStatusProcessing,
	WebhookStatusSuccess,
	WebhookStatusFailed,
}

// String implements fmt.Stringer.
func (w WebhookStatus) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WebhookStatus.
func (w WebhookStatus) IsValid() bool {
	for _, candidate := range validWebhookStatuses {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWebhookStatus converts raw input into a WebhookStatus.
func ParseWebhookStatus(value string) (WebhookStatus, error) {
	for _, candidate := range validWebhookStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid webhook status %q", value)
}
