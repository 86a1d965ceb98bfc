package scorer

import (
	"testing"
	"time"

	"token-radar/internal/domain"
)

func class(label domain.SentimentLabel, confidence float64) domain.SentimentClass {
	return domain.SentimentClass{Label: label, Confidence: confidence}
}

func TestItemScoreOrderedByLabel(t *testing.T) {
	for _, confidence := range []float64{0, 0.25, 0.5, 0.99, 1} {
		bearish := ItemScore(class(domain.LabelBearish, confidence))
		neutral := ItemScore(class(domain.LabelNeutral, confidence))
		bullish := ItemScore(class(domain.LabelBullish, confidence))

		if !(bearish < neutral && neutral < bullish) {
			t.Fatalf("confidence %.2f: expected bearish < neutral < bullish, got %.2f %.2f %.2f",
				confidence, bearish, neutral, bullish)
		}
		for _, score := range []float64{bearish, neutral, bullish} {
			if score < 0 || score > 100 {
				t.Fatalf("score %.2f out of [0,100]", score)
			}
		}
	}
}

func TestItemScoreRanges(t *testing.T) {
	tests := []struct {
		label      domain.SentimentLabel
		confidence float64
		want       float64
	}{
		{domain.LabelBearish, 1, 33},
		{domain.LabelBearish, 0.5, 16.5},
		{domain.LabelNeutral, 0, 34},
		{domain.LabelNeutral, 1, 67},
		{domain.LabelBullish, 0, 67},
		{domain.LabelBullish, 1, 100},
	}
	for _, tt := range tests {
		got := ItemScore(class(tt.label, tt.confidence))
		if got != tt.want {
			t.Errorf("ItemScore(%s, %.2f) = %.2f, want %.2f", tt.label, tt.confidence, got, tt.want)
		}
	}
}

func TestAnalyzeBatchEmpty(t *testing.T) {
	now := time.Now()
	got := AnalyzeBatch("PEPE", nil, nil, now)

	if got.SentimentScore != 50.0 {
		t.Errorf("expected neutral fallback score 50.0, got %.2f", got.SentimentScore)
	}
	if got.Confidence != 0 {
		t.Errorf("expected zero confidence, got %.2f", got.Confidence)
	}
	if got.SampleSize != 0 {
		t.Errorf("expected zero sample size, got %d", got.SampleSize)
	}
	if got.SentimentLabel != domain.LabelNeutral {
		t.Errorf("expected neutral label, got %s", got.SentimentLabel)
	}
}

func TestAnalyzeBatchCountsSumToSampleSize(t *testing.T) {
	classes := []domain.SentimentClass{
		class(domain.LabelBullish, 0.9),
		class(domain.LabelBullish, 0.8),
		class(domain.LabelBearish, 0.7),
		class(domain.LabelNeutral, 0.6),
		class(domain.LabelNeutral, 0.4),
	}
	got := AnalyzeBatch("DOGE", classes, nil, time.Now())

	if got.BullishCount+got.NeutralCount+got.BearishCount != got.SampleSize {
		t.Fatalf("counts %d+%d+%d do not sum to sample size %d",
			got.BullishCount, got.NeutralCount, got.BearishCount, got.SampleSize)
	}
	if got.SampleSize != len(classes) {
		t.Fatalf("expected sample size %d, got %d", len(classes), got.SampleSize)
	}
	if got.SentimentScore < 0 || got.SentimentScore > 100 {
		t.Fatalf("score %.2f out of [0,100]", got.SentimentScore)
	}
}

func TestAnalyzeBatchMajorityVote(t *testing.T) {
	bullishHeavy := []domain.SentimentClass{
		class(domain.LabelBullish, 0.9),
		class(domain.LabelBullish, 0.9),
		class(domain.LabelBullish, 0.9),
		class(domain.LabelBearish, 0.9),
	}
	if got := AnalyzeBatch("X", bullishHeavy, nil, time.Now()); got.SentimentLabel != domain.LabelBullish {
		t.Errorf("expected bullish majority label, got %s", got.SentimentLabel)
	}

	// No strict majority over the other two combined defaults to neutral.
	split := []domain.SentimentClass{
		class(domain.LabelBullish, 0.9),
		class(domain.LabelBearish, 0.9),
	}
	if got := AnalyzeBatch("X", split, nil, time.Now()); got.SentimentLabel != domain.LabelNeutral {
		t.Errorf("expected neutral label on tie, got %s", got.SentimentLabel)
	}
}

func TestAnalyzeBatchEngagementAverages(t *testing.T) {
	classes := []domain.SentimentClass{class(domain.LabelNeutral, 0.5)}
	posts := []domain.Post{
		{Likes: 10, Reposts: 4, Replies: 2},
		{Likes: 20, Reposts: 6, Replies: 4},
	}
	got := AnalyzeBatch("SHIB", classes, posts, time.Now())

	if got.AvgLikes != 15 || got.AvgReposts != 5 || got.AvgReplies != 3 {
		t.Fatalf("unexpected engagement averages: %.1f %.1f %.1f",
			got.AvgLikes, got.AvgReposts, got.AvgReplies)
	}
}
