package decision

const contrarianThreshold = 30.0

// assessPsychology is stage 5: a fear-greed read off momentum, a sentiment
// bucket, a contrarian flag at the extremes, and a Wyckoff-flavored regime
// classification from trend and volume.
func assessPsychology(mc MarketContext) Psychology {
	fearGreed := clamp(50+mc.Momentum, 0, 100)

	sentiment := "neutral"
	switch {
	case fearGreed < 20:
		sentiment = "extreme-fear"
	case fearGreed < 40:
		sentiment = "fear"
	case fearGreed < 60:
		sentiment = "neutral"
	case fearGreed < 80:
		sentiment = "greed"
	default:
		sentiment = "extreme-greed"
	}

	contrarian := false
	contrarianDirection := ""
	if abs(fearGreed-50) > contrarianThreshold {
		contrarian = true
		if fearGreed > 50 {
			contrarianDirection = "bearish-reversal"
		} else {
			contrarianDirection = "bullish-reversal"
		}
	}

	return Psychology{
		FearGreedIndex:      fearGreed,
		Sentiment:           sentiment,
		ContrarianSignal:    contrarian,
		ContrarianDirection: contrarianDirection,
		Regime:              wyckoffRegime(mc),
	}
}

func wyckoffRegime(mc MarketContext) string {
	volumeAboveAvg := mc.Volume > mc.AvgVolume
	switch {
	case mc.Trend == "bullish" && volumeAboveAvg:
		return "markup"
	case mc.Trend == "bullish":
		return "accumulation"
	case mc.Trend == "bearish" && volumeAboveAvg:
		return "markdown"
	case mc.Trend == "bearish":
		return "distribution"
	default:
		return "consolidation"
	}
}
