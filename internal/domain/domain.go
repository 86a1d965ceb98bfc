package domain

import "time"

type SentimentLabel string

const (
	LabelBullish SentimentLabel = "bullish"
	LabelNeutral SentimentLabel = "neutral"
	LabelBearish SentimentLabel = "bearish"
)

// SentimentClass is the output of the classifier port for one text unit.
// Probabilities sum to ~1 across the three labels.
type SentimentClass struct {
	Label         SentimentLabel             `json:"label"`
	Confidence    float64                    `json:"confidence"`
	Probabilities map[SentimentLabel]float64 `json:"probabilities"`
}

// NeutralFallbackClass is the class substituted when the classifier
// fails or times out.
func NeutralFallbackClass() SentimentClass {
	return SentimentClass{
		Label:      LabelNeutral,
		Confidence: 0,
		Probabilities: map[SentimentLabel]float64{
			LabelBearish: 0.33,
			LabelNeutral: 0.34,
			LabelBullish: 0.33,
		},
	}
}

type Trend string

const (
	TrendRising           Trend = "rising"
	TrendFalling          Trend = "falling"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

// TokenSentiment is one per-token evaluation-cycle snapshot. Immutable
// once created; superseded by the next cycle's snapshot.
type TokenSentiment struct {
	Token          string         `json:"token"`
	Timestamp      time.Time      `json:"timestamp"`
	SentimentScore float64        `json:"sentiment_score"`
	SentimentLabel SentimentLabel `json:"sentiment_label"`
	Confidence     float64        `json:"confidence"`
	SampleSize     int            `json:"sample_size"`

	BullishCount int `json:"bullish_count"`
	NeutralCount int `json:"neutral_count"`
	BearishCount int `json:"bearish_count"`

	AvgLikes   float64 `json:"avg_likes"`
	AvgReposts float64 `json:"avg_reposts"`
	AvgReplies float64 `json:"avg_replies"`

	Trend         Trend   `json:"trend"`
	TrendStrength float64 `json:"trend_strength"`
}

type Prediction string

const (
	Predict100x  Prediction = "100x"
	Predict10x   Prediction = "10x"
	Predict5x    Prediction = "5x"
	Predict2x    Prediction = "2x"
	PredictHold  Prediction = "hold"
	PredictAvoid Prediction = "avoid"
)

// SnipeSignal is the composite per-token result of one scan cycle.
type SnipeSignal struct {
	TokenAddress string `json:"token_address"`
	TokenSymbol  string `json:"token_symbol"`
	TokenName    string `json:"token_name"`
	DEX          string `json:"dex"`

	VolumeScore    float64 `json:"volume_score"`
	SentimentScore float64 `json:"sentiment_score"`
	DevWalletScore float64 `json:"dev_wallet_score"`
	LiquidityScore float64 `json:"liquidity_score"`

	OverallScore float64    `json:"overall_score"`
	Prediction   Prediction `json:"prediction"`
	Confidence   float64    `json:"confidence"`

	KeySignals     []string `json:"key_signals"`
	Risks          []string `json:"risks"`
	Recommendation string   `json:"recommendation"`

	PoolAddress       string    `json:"pool_address"`
	CreatedAt         time.Time `json:"created_at"`
	AnalysisTimestamp time.Time `json:"analysis_timestamp"`
}

type VolumeTrend string

const (
	VolumeIncreasing VolumeTrend = "increasing"
	VolumeStable     VolumeTrend = "stable"
	VolumeDecreasing VolumeTrend = "decreasing"
)

// VolumeMetrics is a point-in-time snapshot from a volume source,
// keyed by token/pool identity.
type VolumeMetrics struct {
	Volume5m       float64 `json:"volume_5m"`
	Volume1h       float64 `json:"volume_1h"`
	Volume24h      float64 `json:"volume_24h"`
	LiquidityUSD   float64 `json:"liquidity_usd"`
	Price          float64 `json:"price"`
	PriceChange5m  float64 `json:"price_change_5m"`
	PriceChange1h  float64 `json:"price_change_1h"`
	PriceChange24h float64 `json:"price_change_24h"`
}

// DevWalletMetrics is a snapshot of holder balances for wallets
// related to a token's deployer.
type DevWalletMetrics struct {
	Balances []float64 `json:"balances"`
}

// Post is one text unit with engagement counters, as produced by a
// text source.
type Post struct {
	Text    string `json:"text"`
	Likes   int    `json:"likes"`
	Reposts int    `json:"reposts"`
	Replies int    `json:"replies"`
}

// TokenPair identifies a tradeable token and its pool on a DEX.
type TokenPair struct {
	TokenAddress string    `json:"token_address"`
	TokenSymbol  string    `json:"token_symbol"`
	TokenName    string    `json:"token_name"`
	DEX          string    `json:"dex"`
	PoolAddress  string    `json:"pool_address"`
	LiquidityUSD float64   `json:"liquidity_usd"`
	CreatedAt    time.Time `json:"created_at"`
}
