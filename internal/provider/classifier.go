package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"token-radar/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// KeywordClassifier is a zero-dependency classifier driven by keyword
// matching. It serves as the default and as the fallback when no LLM
// key is configured.
type KeywordClassifier struct {
	bullish []string
	bearish []string
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		bullish: []string{
			"bull", "breakout", "surge", "rally", "adoption", "moon",
			"rocket", "gem", "diamond", "hodl", "buy", "uptrend",
			"potential", "fundamentals", "amazing", "love",
		},
		bearish: []string{
			"bear", "dump", "sell", "crash", "hack", "rug", "scam",
			"ban", "decline", "downtrend", "liquidation", "dead",
			"collapse", "exit", "hype", "stay away",
		},
	}
}

// Classify counts keyword hits in each direction and converts the
// imbalance into a label with a bounded confidence. Texts with no
// keyword hits classify as neutral.
func (k *KeywordClassifier) Classify(ctx context.Context, text string) (domain.SentimentClass, error) {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return domain.SentimentClass{
			Label:      domain.LabelNeutral,
			Confidence: 0.25,
			Probabilities: map[domain.SentimentLabel]float64{
				domain.LabelBearish: 0.33,
				domain.LabelNeutral: 0.34,
				domain.LabelBullish: 0.33,
			},
		}, nil
	}

	bullCount := countMatches(lowered, k.bullish)
	bearCount := countMatches(lowered, k.bearish)

	raw := float64(bullCount-bearCount) / float64(bullCount+bearCount+1)
	confidence := clampRange(0.35+0.1*float64(absInt(bullCount-bearCount)), 0.25, 0.70)

	label := domain.LabelNeutral
	if raw > 0.2 {
		label = domain.LabelBullish
	} else if raw < -0.2 {
		label = domain.LabelBearish
	}

	return domain.SentimentClass{
		Label:         label,
		Confidence:    confidence,
		Probabilities: probabilitiesFor(label, confidence),
	}, nil
}

// probabilitiesFor assigns the confidence to the winning label and
// splits the remainder evenly across the other two.
func probabilitiesFor(label domain.SentimentLabel, confidence float64) map[domain.SentimentLabel]float64 {
	rest := (1 - confidence) / 2
	probs := map[domain.SentimentLabel]float64{
		domain.LabelBearish: rest,
		domain.LabelNeutral: rest,
		domain.LabelBullish: rest,
	}
	probs[label] = confidence
	return probs
}

func countMatches(text string, tokens []string) int {
	count := 0
	for _, token := range tokens {
		if strings.Contains(text, token) {
			count++
		}
	}
	return count
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type openAIChatClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// OpenAIClassifier batches texts into a single chat completion and
// parses a JSON array of per-text classifications.
type OpenAIClassifier struct {
	client openAIChatClient
	model  string
}

// NewOpenAIClassifier returns nil when no API key is configured, which
// callers treat as "use the keyword classifier only".
func NewOpenAIClassifier(apiKey string, model string) *OpenAIClassifier {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClassifier{
		client: &openAIClient{client: client},
		model:  model,
	}
}

// Classify wraps a single text in a one-element batch.
func (o *OpenAIClassifier) Classify(ctx context.Context, text string) (domain.SentimentClass, error) {
	classes, err := o.ClassifyBatch(ctx, []string{text})
	if err != nil {
		return domain.SentimentClass{}, err
	}
	if len(classes) != 1 {
		return domain.SentimentClass{}, fmt.Errorf("expected 1 classification, got %d", len(classes))
	}
	return classes[0], nil
}

func (o *OpenAIClassifier) ClassifyBatch(ctx context.Context, texts []string) ([]domain.SentimentClass, error) {
	if o == nil || o.client == nil || len(texts) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	for i, text := range texts {
		sb.WriteString(fmt.Sprintf("id=%d\n", i))
		sb.WriteString(fmt.Sprintf("text=%s\n\n", strings.TrimSpace(text)))
	}

	systemPrompt := "You classify crypto-token social posts. Return ONLY a JSON array. Each object requires: id (int), label (bullish|neutral|bearish), confidence (0..1), bullish (0..1), neutral (0..1), bearish (0..1). The three label probabilities must sum to 1. No markdown."
	userPrompt := "Posts:\n" + sb.String()

	completion, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty classifier completion")
	}

	raw := strings.TrimSpace(completion.Choices[0].Message.Content)
	raw = trimCodeFence(raw)

	var parsed []struct {
		ID         int     `json:"id"`
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
		Bullish    float64 `json:"bullish"`
		Neutral    float64 `json:"neutral"`
		Bearish    float64 `json:"bearish"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse classifier json: %w", err)
	}

	// Positions the model skipped keep the neutral fallback.
	out := make([]domain.SentimentClass, len(texts))
	for i := range out {
		out[i] = domain.NeutralFallbackClass()
	}
	for _, row := range parsed {
		if row.ID < 0 || row.ID >= len(texts) {
			continue
		}
		label := normalizeLabel(row.Label)
		confidence := clampRange(row.Confidence, 0, 1)
		probs := map[domain.SentimentLabel]float64{
			domain.LabelBearish: clampRange(row.Bearish, 0, 1),
			domain.LabelNeutral: clampRange(row.Neutral, 0, 1),
			domain.LabelBullish: clampRange(row.Bullish, 0, 1),
		}
		if probs[domain.LabelBearish]+probs[domain.LabelNeutral]+probs[domain.LabelBullish] == 0 {
			probs = probabilitiesFor(label, confidence)
		}
		out[row.ID] = domain.SentimentClass{
			Label:         label,
			Confidence:    confidence,
			Probabilities: probs,
		}
	}
	return out, nil
}

func normalizeLabel(label string) domain.SentimentLabel {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "bull", "bullish", "positive":
		return domain.LabelBullish
	case "bear", "bearish", "negative":
		return domain.LabelBearish
	default:
		return domain.LabelNeutral
	}
}

func trimCodeFence(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "```") {
		v = strings.TrimPrefix(v, "```")
		v = strings.TrimSpace(v)
		if strings.HasPrefix(strings.ToLower(v), "json") {
			v = strings.TrimSpace(v[4:])
		}
		v = strings.TrimSuffix(v, "```")
		v = strings.TrimSpace(v)
	}
	return v
}

type openAIClient struct {
	client openai.Client
}

func (c *openAIClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
