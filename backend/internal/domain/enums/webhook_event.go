package enums

// WebhookEvent is a Mini App lifecycle notification sent by the Farcaster client.
type WebhookEvent string

const (
	WebhookFrameAdded            WebhookEvent = "frame_added"
	WebhookFrameRemoved          WebhookEvent = "frame_removed"
	WebhookNotificationsEnabled  WebhookEvent = "notifications_enabled"
	WebhookNotificationsDisabled WebhookEvent = "notifications_disabled"
)
