package dto

type FarcasterAuthRequest struct {
	Token       string `json:"token"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	PfpURL      string `json:"pfp_url,omitempty"`
	Wallet      string `json:"wallet_address,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthTokensResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresInSec int64         `json:"expires_in_sec"`
	User         *UserResponse `json:"user,omitempty"`
	NewActiveDay bool          `json:"new_active_day"`
}

type LogoutResponse struct {
	OK bool `json:"ok"`
}
