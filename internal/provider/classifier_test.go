package provider

import (
	"context"
	"errors"
	"math"
	"testing"

	"token-radar/internal/domain"

	"github.com/openai/openai-go"
)

func TestKeywordClassifierLabels(t *testing.T) {
	k := NewKeywordClassifier()
	ctx := context.Background()

	cases := []struct {
		name string
		text string
		want domain.SentimentLabel
	}{
		{"bullish text", "Bullish on DOGE! This gem is going to moon, diamond hands", domain.LabelBullish},
		{"bearish text", "DOGE is a scam, total rug pull incoming, dump it", domain.LabelBearish},
		{"neutral text", "The price moved sideways today", domain.LabelNeutral},
		{"mixed text", "Could moon and rally, or could crash and dump, who knows", domain.LabelNeutral},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			class, err := k.Classify(ctx, tc.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if class.Label != tc.want {
				t.Fatalf("label = %s, want %s", class.Label, tc.want)
			}
		})
	}
}

func TestKeywordClassifierConfidenceBounds(t *testing.T) {
	k := NewKeywordClassifier()
	ctx := context.Background()

	class, err := k.Classify(ctx, "moon rocket gem diamond hodl rally surge breakout buy uptrend")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if class.Confidence > 0.70 {
		t.Fatalf("confidence = %f, want <= 0.70", class.Confidence)
	}

	class, err = k.Classify(ctx, "nothing remarkable here")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if class.Confidence < 0.25 {
		t.Fatalf("confidence = %f, want >= 0.25", class.Confidence)
	}
}

func TestKeywordClassifierProbabilitiesSumToOne(t *testing.T) {
	k := NewKeywordClassifier()

	class, err := k.Classify(context.Background(), "Bullish breakout, buying more")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := 0.0
	for _, p := range class.Probabilities {
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("probabilities sum = %f, want 1", sum)
	}
	if class.Probabilities[class.Label] != class.Confidence {
		t.Fatalf("winning probability %f != confidence %f",
			class.Probabilities[class.Label], class.Confidence)
	}
}

func TestKeywordClassifierEmptyText(t *testing.T) {
	k := NewKeywordClassifier()

	class, err := k.Classify(context.Background(), "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if class.Label != domain.LabelNeutral {
		t.Fatalf("label = %s, want neutral", class.Label)
	}
	if class.Confidence != 0.25 {
		t.Fatalf("confidence = %f, want 0.25", class.Confidence)
	}
}

func TestNewOpenAIClassifierRequiresKey(t *testing.T) {
	if c := NewOpenAIClassifier("", "gpt-4o-mini"); c != nil {
		t.Fatal("expected nil classifier without API key")
	}
	if c := NewOpenAIClassifier("  ", ""); c != nil {
		t.Fatal("expected nil classifier with blank API key")
	}
}

type fakeChatClient struct {
	content string
	err     error
	params  openai.ChatCompletionNewParams
}

func (f *fakeChatClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func TestOpenAIClassifierParsesBatch(t *testing.T) {
	fake := &fakeChatClient{content: "```json\n[" +
		`{"id":0,"label":"bullish","confidence":0.9,"bullish":0.8,"neutral":0.15,"bearish":0.05},` +
		`{"id":1,"label":"bearish","confidence":0.7,"bullish":0.1,"neutral":0.2,"bearish":0.7}` +
		"]\n```"}
	c := &OpenAIClassifier{client: fake, model: "gpt-4o-mini"}

	classes, err := c.ClassifyBatch(context.Background(), []string{"to the moon", "rug pull"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(classes) != 2 {
		t.Fatalf("got %d classes, want 2", len(classes))
	}
	if classes[0].Label != domain.LabelBullish || classes[0].Confidence != 0.9 {
		t.Fatalf("unexpected first class: %+v", classes[0])
	}
	if classes[0].Probabilities[domain.LabelBullish] != 0.8 {
		t.Fatalf("unexpected bullish probability: %f", classes[0].Probabilities[domain.LabelBullish])
	}
	if classes[1].Label != domain.LabelBearish {
		t.Fatalf("unexpected second class: %+v", classes[1])
	}
}

func TestOpenAIClassifierSkippedIDsFallBackNeutral(t *testing.T) {
	fake := &fakeChatClient{content: `[{"id":1,"label":"bullish","confidence":0.8,"bullish":0.8,"neutral":0.1,"bearish":0.1}]`}
	c := &OpenAIClassifier{client: fake, model: "gpt-4o-mini"}

	classes, err := c.ClassifyBatch(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if classes[0].Label != domain.LabelNeutral || classes[0].Confidence != 0 {
		t.Fatalf("expected neutral fallback for skipped id, got %+v", classes[0])
	}
	if classes[1].Label != domain.LabelBullish {
		t.Fatalf("unexpected second class: %+v", classes[1])
	}
}

func TestOpenAIClassifierPropagatesError(t *testing.T) {
	fake := &fakeChatClient{err: errors.New("rate limited")}
	c := &OpenAIClassifier{client: fake, model: "gpt-4o-mini"}

	if _, err := c.ClassifyBatch(context.Background(), []string{"text"}); err == nil {
		t.Fatal("expected upstream error")
	}
}

func TestTrimCodeFence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"[]", "[]"},
		{"```json\n[]\n```", "[]"},
		{"```\n[]\n```", "[]"},
		{"  ```json\n[1,2]\n```  ", "[1,2]"},
	}
	for _, tc := range cases {
		if got := trimCodeFence(tc.in); got != tc.want {
			t.Fatalf("trimCodeFence(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
