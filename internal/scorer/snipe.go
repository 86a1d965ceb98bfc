package scorer

import (
	"fmt"
	"math"
	"time"

	"token-radar/internal/domain"
)

// Overall score weights per signal.
const (
	weightVolume    = 0.30
	weightSentiment = 0.25
	weightDevWallet = 0.25
	weightLiquidity = 0.20
)

// VolumeTrendOf derives the short-term volume trend from the ratio of
// 5-minute to 1-hour volume. Zero volume on either side reads as stable.
func VolumeTrendOf(m domain.VolumeMetrics) domain.VolumeTrend {
	if m.Volume5m == 0 || m.Volume1h == 0 {
		return domain.VolumeStable
	}
	ratio := m.Volume5m / m.Volume1h
	if ratio > 1.5 {
		return domain.VolumeIncreasing
	}
	if ratio < 0.5 {
		return domain.VolumeDecreasing
	}
	return domain.VolumeStable
}

// BuyPressure combines volume acceleration (5m vs 1h) with short-term
// price movement into a 0-100 pressure reading. Sell pressure is its
// complement.
func BuyPressure(m domain.VolumeMetrics) float64 {
	var acceleration float64
	if m.Volume1h > 0 {
		acceleration = math.Min(100, (m.Volume5m/m.Volume1h)*100)
	}
	priceScore := clamp(m.PriceChange5m+50, 0, 100)
	return clamp(acceleration*0.6+priceScore*0.4, 0, 100)
}

// VolumeScore rates short-term volume activity 0-100: absolute 5m
// volume, trend direction, and buy pressure.
func VolumeScore(m domain.VolumeMetrics) float64 {
	score := 0.0
	if m.Volume5m > 10000 {
		score += 30
	} else if m.Volume5m > 5000 {
		score += 20
	}

	switch VolumeTrendOf(m) {
	case domain.VolumeIncreasing:
		score += 30
	case domain.VolumeStable:
		score += 15
	}

	score += (BuyPressure(m) / 100) * 40
	return clamp(score, 0, 100)
}

// LiquidityScore is a step function of pool liquidity in USD.
func LiquidityScore(liquidityUSD float64) float64 {
	switch {
	case liquidityUSD < 10000:
		return 20
	case liquidityUSD < 50000:
		return 40
	case liquidityUSD < 100000:
		return 60
	case liquidityUSD < 500000:
		return 80
	default:
		return 100
	}
}

// ClusteringScore rates dev-wallet clustering suspicion 0-100 from the
// coefficient of variation of holder balances. Uniform holdings across
// wallets score high (suspicious); fewer than two wallets score zero.
func ClusteringScore(m domain.DevWalletMetrics) float64 {
	if len(m.Balances) < 2 {
		return 0
	}

	mean := 0.0
	for _, b := range m.Balances {
		mean += b
	}
	mean /= float64(len(m.Balances))
	if mean <= 0 {
		return 0
	}

	variance := 0.0
	for _, b := range m.Balances {
		variance += (b - mean) * (b - mean)
	}
	variance /= float64(len(m.Balances))
	cv := math.Sqrt(variance) / mean

	return clamp(100-cv*100, 0, 100)
}

// Predict maps the overall score and its components to a prediction
// tier. Rules are evaluated top-down; the first match wins. Returned
// confidence equals the overall score.
func Predict(overall, volume, sentiment float64) (domain.Prediction, float64) {
	switch {
	case overall > 80 && volume > 70 && sentiment > 70:
		return domain.Predict100x, overall
	case overall > 70 && volume > 60:
		return domain.Predict10x, overall
	case overall > 60:
		return domain.Predict5x, overall
	case overall > 50:
		return domain.Predict2x, overall
	case overall > 40:
		return domain.PredictHold, overall
	default:
		return domain.PredictAvoid, overall
	}
}

// BuildSnipeSignal combines per-signal metrics for one pair into a
// SnipeSignal. All sub-scores are clamped to [0,100]; the result is
// immutable and superseded by the next scan cycle.
func BuildSnipeSignal(pair domain.TokenPair, volume domain.VolumeMetrics, wallets domain.DevWalletMetrics, sentimentScore float64, now time.Time) domain.SnipeSignal {
	volumeScore := VolumeScore(volume)
	devWalletScore := ClusteringScore(wallets)
	liquidityScore := LiquidityScore(volume.LiquidityUSD)
	sentimentScore = clamp(sentimentScore, 0, 100)

	overall := volumeScore*weightVolume +
		sentimentScore*weightSentiment +
		devWalletScore*weightDevWallet +
		liquidityScore*weightLiquidity

	prediction, confidence := Predict(overall, volumeScore, sentimentScore)

	keySignals := extractKeySignals(volume, sentimentScore, devWalletScore)
	risks := identifyRisks(volume, devWalletScore)

	return domain.SnipeSignal{
		TokenAddress:      pair.TokenAddress,
		TokenSymbol:       pair.TokenSymbol,
		TokenName:         pair.TokenName,
		DEX:               pair.DEX,
		VolumeScore:       volumeScore,
		SentimentScore:    sentimentScore,
		DevWalletScore:    devWalletScore,
		LiquidityScore:    liquidityScore,
		OverallScore:      overall,
		Prediction:        prediction,
		Confidence:        confidence,
		KeySignals:        keySignals,
		Risks:             risks,
		Recommendation:    recommendation(prediction, confidence, len(risks)),
		PoolAddress:       pair.PoolAddress,
		CreatedAt:         pair.CreatedAt,
		AnalysisTimestamp: now,
	}
}

func extractKeySignals(volume domain.VolumeMetrics, sentimentScore, devWalletScore float64) []string {
	signals := []string{}
	if VolumeTrendOf(volume) == domain.VolumeIncreasing {
		signals = append(signals, "volume increasing rapidly")
	}
	if BuyPressure(volume) > 70 {
		signals = append(signals, "strong buy pressure")
	}
	if volume.PriceChange5m > 5 {
		signals = append(signals, "price up 5%+ in 5m")
	}
	if sentimentScore > 70 {
		signals = append(signals, "positive social sentiment")
	}
	if devWalletScore > 70 {
		signals = append(signals, "suspicious dev wallet clustering")
	}
	return signals
}

func identifyRisks(volume domain.VolumeMetrics, devWalletScore float64) []string {
	risks := []string{}
	if volume.LiquidityUSD < 50000 {
		risks = append(risks, "low liquidity (<$50k)")
	}
	if volume.Volume24h < 100000 {
		risks = append(risks, "low 24h volume")
	}
	if devWalletScore > 70 {
		risks = append(risks, "dev wallets hold near-uniform balances")
	}
	return risks
}

func recommendation(prediction domain.Prediction, confidence float64, riskCount int) string {
	switch prediction {
	case domain.Predict100x:
		return fmt.Sprintf("SNIPE SIGNAL: %.0f%% confidence. Monitor for entry. %d risks identified.", confidence, riskCount)
	case domain.Predict10x:
		return fmt.Sprintf("STRONG BUY: %.0f%% confidence. Good risk/reward.", confidence)
	case domain.Predict5x:
		return fmt.Sprintf("BUY: %.0f%% confidence. Decent potential.", confidence)
	case domain.Predict2x:
		return fmt.Sprintf("HOLD: %.0f%% confidence. Limited upside.", confidence)
	default:
		return fmt.Sprintf("AVOID: %.0f%% confidence. Too risky.", confidence)
	}
}
