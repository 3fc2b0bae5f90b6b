package model

import "time"

type Coin struct {
	ID          string    `json:"id"`
	CreatorFID  int64     `json:"creator_fid"`
	CoinAddress string    `json:"coin_address"`
	Name        string    `json:"name"`
	Symbol      string    `json:"symbol"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	MetadataURI string    `json:"metadata_uri"`
	ChainID     int64     `json:"chain_id"`
	TxHash      string    `json:"tx_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// Boost is an active boost entitlement joined with the coin it features.
type Boost struct {
	Entitlement Entitlement `json:"entitlement"`
	Coin        *Coin       `json:"coin,omitempty"`
}
