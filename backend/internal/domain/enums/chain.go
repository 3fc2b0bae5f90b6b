package enums

type ChainID int64

const (
	ChainBase ChainID = 8453
	ChainZora ChainID = 7777777
)

func (c ChainID) Supported() bool {
	return c == ChainBase || c == ChainZora
}

func (c ChainID) Name() string {
	switch c {
	case ChainBase:
		return "base"
	case ChainZora:
		return "zora"
	default:
		return "unknown"
	}
}
