package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/enums"
)

const (
	PointsPerCoinCreated = 10
	PointsPerTenUSDVol   = 1
	PointsPerHolder      = 2
	PointsPerShare       = 5
	PointsPerActiveDay   = 1

	// MaxScoreQuantity keeps quantity times any point rate inside int64.
	MaxScoreQuantity = 1_000_000_000_000
)

// ScoreDelta converts a scoring event into points. For trading volume the
// quantity is whole USD and every full 10 USD earns a point.
func ScoreDelta(event enums.ScoreEvent, quantity int64) (int64, bool) {
	if quantity < 0 || quantity > MaxScoreQuantity {
		return 0, false
	}

	switch event {
	case enums.ScoreEventCoinCreated:
		return quantity * PointsPerCoinCreated, true
	case enums.ScoreEventTradingVolume:
		return (quantity / 10) * PointsPerTenUSDVol, true
	case enums.ScoreEventHolder:
		return quantity * PointsPerHolder, true
	case enums.ScoreEventShare:
		return quantity * PointsPerShare, true
	case enums.ScoreEventActiveDay:
		return quantity * PointsPerActiveDay, true
	default:
		return 0, false
	}
}

type ScoreStats struct {
	CoinsCreated     int64
	TradingVolumeUSD int64
	Holders          int64
	Shares           int64
	DaysActive       int64
}

func CalculateScore(stats ScoreStats) int64 {
	return stats.CoinsCreated*PointsPerCoinCreated +
		(stats.TradingVolumeUSD/10)*PointsPerTenUSDVol +
		stats.Holders*PointsPerHolder +
		stats.Shares*PointsPerShare +
		stats.DaysActive*PointsPerActiveDay
}

// StatsSummary is the cast text a user shares to show off their stats.
func StatsSummary(username string, score int64, rank int, coinsCreated int64, volumeUSD int64) string {
	return fmt.Sprintf("📊 %s's CastLaunchEarn Stats\n\n🏆 Rank: #%d\n⭐ Score: %s\n🪙 Coins Created: %d\n📈 Total Volume: $%s\n\nCreated with @CastLaunchEarn 🚀",
		username, rank, groupThousands(score), coinsCreated, groupThousands(volumeUSD))
}

func groupThousands(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
