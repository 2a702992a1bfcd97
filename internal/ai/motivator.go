package ai

import (
	"context"
	"math/rand"
	"time"

	"github.com/bhupeshcoding/codecoach/models"
)

// Motivator serves random quotes and tips, optionally from a pool loaded out
// of the motivational content table.
type Motivator struct {
	quotes []string
	tips   []string
}

// NewMotivator builds a motivator. Empty pools fall back to the built-ins.
func NewMotivator(quotes, tips []string) *Motivator {
	if len(quotes) == 0 {
		quotes = DefaultQuotes()
	}
	if len(tips) == 0 {
		tips = DefaultTips()
	}
	return &Motivator{quotes: quotes, tips: tips}
}

// RandomQuote picks one motivational quote.
func (m *Motivator) RandomQuote() string {
	return m.quotes[rand.Intn(len(m.quotes))]
}

// DailyTip picks one coding tip.
func (m *Motivator) DailyTip() string {
	return m.tips[rand.Intn(len(m.tips))]
}

// Stream emits one quote/tip pair per interval until duration elapses or ctx
// is done, then closes the channel. The channel is unbuffered so production
// stops as soon as the consumer goes away.
func (m *Motivator) Stream(ctx context.Context, interval, duration time.Duration) <-chan models.Motivation {
	out := make(chan models.Motivation)
	go func() {
		defer close(out)
		deadline := time.Now().Add(duration)
		for time.Now().Before(deadline) {
			item := models.Motivation{
				Quote:     m.RandomQuote(),
				Tip:       m.DailyTip(),
				Timestamp: time.Now(),
				Type:      "motivation",
			}
			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
			select {
			case <-time.After(interval):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
