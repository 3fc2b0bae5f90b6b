package dto

import "time"

type CoinResponse struct {
	ID          string    `json:"id"`
	CreatorFID  int64     `json:"creator_fid"`
	CoinAddress string    `json:"coin_address"`
	Name        string    `json:"name"`
	Symbol      string    `json:"symbol"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	MetadataURI string    `json:"metadata_uri"`
	ChainID     int64     `json:"chain_id"`
	TxHash      string    `json:"tx_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CoinsResponse struct {
	Coins []CoinResponse `json:"coins"`
}

type CreateCoinRequest struct {
	CoinAddress string `json:"coin_address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	MetadataURI string `json:"metadata_uri"`
	ChainID     int64  `json:"chain_id"`
	TxHash      string `json:"tx_hash"`
}

type CreateCoinResponse struct {
	Coin         CoinResponse `json:"coin"`
	ScoreAwarded int64        `json:"score_awarded"`
}

type PrepareCoinRequest struct {
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	Description     string `json:"description"`
	ImageURL        string `json:"image_url"`
	ChainID         int64  `json:"chain_id"`
	PayoutRecipient string `json:"payout_recipient"`
}

type PrepareCoinResponse struct {
	Name             string `json:"name"`
	Symbol           string `json:"symbol"`
	MetadataURI      string `json:"metadata_uri"`
	Metadata         any    `json:"metadata"`
	PayoutRecipient  string `json:"payout_recipient"`
	PlatformReferrer string `json:"platform_referrer"`
	ChainID          int64  `json:"chain_id"`
}
