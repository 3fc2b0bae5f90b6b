package dto

type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

type WebhookData struct {
	FID int64 `json:"fid"`
}

type WebhookAck struct {
	Success bool `json:"success"`
}

type WebhookStatus struct {
	Status string `json:"status"`
	App    string `json:"app"`
}
