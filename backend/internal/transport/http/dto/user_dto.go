package dto

import "time"

type UserResponse struct {
	FID                  int64     `json:"fid"`
	Username             string    `json:"username"`
	DisplayName          string    `json:"display_name"`
	PfpURL               string    `json:"pfp_url"`
	WalletAddress        string    `json:"wallet_address,omitempty"`
	Score                int64     `json:"score"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at"`
}

type MeResponse struct {
	User                  UserResponse `json:"user"`
	Rank                  int          `json:"rank"`
	IsSubscriber          bool         `json:"is_subscriber"`
	SubscriptionKind      string       `json:"subscription_kind,omitempty"`
	SubscriptionExpiresAt *time.Time   `json:"subscription_expires_at,omitempty"`
}

type LeaderboardEntryResponse struct {
	Rank int `json:"rank"`
	UserResponse
}

type LeaderboardResponse struct {
	Leaderboard []LeaderboardEntryResponse `json:"leaderboard"`
	Period      string                     `json:"period"`
	Timestamp   time.Time                  `json:"timestamp"`
}

// ScoreRequest adjusts a score either by a raw delta or by a scoring event.
type ScoreRequest struct {
	FID        int64  `json:"fid"`
	ScoreDelta int64  `json:"score_delta,omitempty"`
	Event      string `json:"event,omitempty"`
	Quantity   int64  `json:"quantity,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

type ScoreResponse struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
	Delta   int64  `json:"delta"`
	Score   int64  `json:"score"`
}

type ShareResponse struct {
	Delta int64  `json:"delta"`
	Score int64  `json:"score"`
	Rank  int    `json:"rank"`
	Text  string `json:"text"`
}
