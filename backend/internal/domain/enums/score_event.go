package enums

type ScoreEvent string

const (
	ScoreEventCoinCreated   ScoreEvent = "coin_created"
	ScoreEventTradingVolume ScoreEvent = "trading_volume"
	ScoreEventHolder        ScoreEvent = "holder"
	ScoreEventShare         ScoreEvent = "share"
	ScoreEventActiveDay     ScoreEvent = "active_day"
)

func (e ScoreEvent) Valid() bool {
	switch e {
	case ScoreEventCoinCreated, ScoreEventTradingVolume, ScoreEventHolder, ScoreEventShare, ScoreEventActiveDay:
		return true
	}
	return false
}
