package model

import "time"

// User is keyed by the Farcaster id. Score only changes through atomic increments.
type User struct {
	FID                  int64     `json:"fid"`
	Username             string    `json:"username"`
	DisplayName          string    `json:"display_name"`
	PfpURL               string    `json:"pfp_url"`
	WalletAddress        string    `json:"wallet_address"`
	Score                int64     `json:"score"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// UserProfile is the upsert payload taken from the identity provider.
type UserProfile struct {
	FID           int64
	Username      string
	DisplayName   string
	PfpURL        string
	WalletAddress string
}

type LeaderboardEntry struct {
	Rank int  `json:"rank"`
	User User `json:"user"`
}
