package scorer

import (
	"math"
	"time"

	"token-radar/internal/domain"
)

// ItemScore maps one classified item onto the 0-100 sentiment scale.
// The piecewise ranges are disjoint and ordered so that any bearish
// item scores below any neutral item, and any neutral below any
// bullish, regardless of confidence:
//
//	bearish -> [0, 33], neutral -> [34, 67], bullish -> [67, 100]
func ItemScore(class domain.SentimentClass) float64 {
	c := clamp(class.Confidence, 0, 1)
	switch class.Label {
	case domain.LabelBullish:
		return 67 + c*33
	case domain.LabelBearish:
		return c * 33
	default:
		return 34 + c*33
	}
}

// AnalyzeBatch aggregates one token's classified posts into a
// TokenSentiment snapshot. Trend fields are filled in by the caller
// from history; they default to insufficient_data here.
func AnalyzeBatch(token string, classes []domain.SentimentClass, posts []domain.Post, now time.Time) domain.TokenSentiment {
	if len(classes) == 0 {
		return EmptySentiment(token, now)
	}

	var bullish, neutral, bearish int
	var scoreSum, confSum float64
	for _, class := range classes {
		switch class.Label {
		case domain.LabelBullish:
			bullish++
		case domain.LabelBearish:
			bearish++
		default:
			neutral++
		}
		scoreSum += ItemScore(class)
		confSum += clamp(class.Confidence, 0, 1)
	}

	n := float64(len(classes))
	label := domain.LabelNeutral
	if bullish > neutral+bearish {
		label = domain.LabelBullish
	} else if bearish > neutral+bullish {
		label = domain.LabelBearish
	}

	var likes, reposts, replies float64
	for _, p := range posts {
		likes += float64(p.Likes)
		reposts += float64(p.Reposts)
		replies += float64(p.Replies)
	}
	if len(posts) > 0 {
		likes /= float64(len(posts))
		reposts /= float64(len(posts))
		replies /= float64(len(posts))
	}

	return domain.TokenSentiment{
		Token:          token,
		Timestamp:      now,
		SentimentScore: scoreSum / n,
		SentimentLabel: label,
		Confidence:     confSum / n,
		SampleSize:     len(classes),
		BullishCount:   bullish,
		NeutralCount:   neutral,
		BearishCount:   bearish,
		AvgLikes:       likes,
		AvgReposts:     reposts,
		AvgReplies:     replies,
		Trend:          domain.TrendInsufficientData,
	}
}

// EmptySentiment is the fallback snapshot for an empty batch or a
// failed upstream fetch: neutral at 50.0 with zero confidence.
func EmptySentiment(token string, now time.Time) domain.TokenSentiment {
	return domain.TokenSentiment{
		Token:          token,
		Timestamp:      now,
		SentimentScore: 50.0,
		SentimentLabel: domain.LabelNeutral,
		Confidence:     0,
		SampleSize:     0,
		Trend:          domain.TrendInsufficientData,
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
