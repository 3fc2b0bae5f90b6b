package model

import "math/big"

// Payment is a confirmed native transfer observed on chain.
type Payment struct {
	TxHash      string
	From        string
	To          string
	ValueWei    *big.Int
	BlockNumber uint64
}
