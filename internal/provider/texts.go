package provider

import (
	"context"
	"fmt"
	"strings"

	"token-radar/internal/domain"
)

// SampleTextSource produces a deterministic spread of posts per token,
// covering bullish, bearish, and neutral phrasing. It stands in for a
// live social feed when no scraper credentials are configured.
type SampleTextSource struct {
	templates []string
}

func NewSampleTextSource() *SampleTextSource {
	return &SampleTextSource{
		templates: []string{
			"Bullish on %s! Great project with amazing potential",
			"%s is the future of DeFi. HODL!",
			"Just bought more %s. This is going to moon",
			"%s has incredible fundamentals. Long term hold",
			"The %s team is doing amazing work. Very impressed",
			"Bearish on %s. Too much hype, no substance",
			"%s is a scam. Stay away!",
			"Not sure about %s. Need to do more research",
			"%s is consolidating. Waiting for breakout",
			"Love the %s community! Great vibes here",
		},
	}
}

// Posts returns up to max posts for the token. Engagement counters
// grow with position so averages are non-trivial in tests.
func (s *SampleTextSource) Posts(ctx context.Context, token string, max int) ([]domain.Post, error) {
	if max <= 0 || max > len(s.templates) {
		max = len(s.templates)
	}

	token = strings.ToUpper(strings.TrimSpace(token))
	posts := make([]domain.Post, 0, max)
	for i := 0; i < max; i++ {
		posts = append(posts, domain.Post{
			Text:    fmt.Sprintf(s.templates[i], token),
			Likes:   100 + i*10,
			Reposts: 50 + i*5,
			Replies: 20 + i,
		})
	}
	return posts, nil
}
