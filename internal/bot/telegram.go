package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"token-radar/internal/service"

	tele "gopkg.in/telebot.v3"
)

func StartTelegramBot(sentimentService *service.SentimentService, snipeService *service.SnipeService) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/sentiment", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /sentiment DOGE")
		}
		symbol := strings.ToUpper(args[0])
		sentiment, err := sentimentService.GetTokenSentiment(context.Background(), symbol, true)
		if err != nil {
			return c.Send(fmt.Sprintf("Error analyzing %s: %v", symbol, err))
		}
		msg := fmt.Sprintf(
			"%s Sentiment\nScore: %.1f/100 (%s)\nConfidence: %.0f%%\nPosts: %d (%d bullish / %d neutral / %d bearish)\nTrend: %s",
			sentiment.Token, sentiment.SentimentScore, sentiment.SentimentLabel,
			sentiment.Confidence*100, sentiment.SampleSize,
			sentiment.BullishCount, sentiment.NeutralCount, sentiment.BearishCount,
			sentiment.Trend,
		)
		return c.Send(msg)
	})

	b.Handle("/signals", func(c tele.Context) error {
		signals, err := snipeService.GetSignals(context.Background(), true)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching snipe signals: %v", err))
		}
		if len(signals) == 0 {
			return c.Send("No snipe signals right now")
		}
		if len(signals) > 5 {
			signals = signals[:5]
		}
		lines := make([]string, 0, len(signals)+1)
		lines = append(lines, "Top Snipe Signals")
		for i, signal := range signals {
			lines = append(lines, fmt.Sprintf(
				"%d. %s [%s] score %.1f conf %.0f%%",
				i+1, signal.TokenSymbol, signal.Prediction, signal.OverallScore, signal.Confidence,
			))
		}
		return c.Send(strings.Join(lines, "\n"))
	})

	log.Println("Telegram bot started")
	go b.Start()
}
