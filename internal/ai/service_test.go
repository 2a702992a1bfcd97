package ai

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bhupeshcoding/codecoach/config"
	"github.com/bhupeshcoding/codecoach/internal/cache"
	"github.com/bhupeshcoding/codecoach/models"
)

func testService(t *testing.T) *Service {
	t.Helper()
	cfg := &config.Config{}
	cfg.Cache.ResponseTTL = time.Minute
	cfg.Cache.RecsTTL = time.Minute
	cfg.AI.TrainMaxAttempts = 1
	return New(cfg, cache.NewManager(nil), NewMotivator(nil, nil))
}

func TestGenerateRoutesByPrompt(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	got, err := svc.Generate(ctx, "help me with this LeetCode problem", map[string]any{"difficulty": models.DifficultyHard})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(got, "push your limits") {
		t.Fatalf("expected hard-difficulty suffix, got %q", got)
	}

	got, err = svc.Generate(ctx, "I need some motivation", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got == "" {
		t.Fatal("expected a motivational quote")
	}
}

func TestTokenStreamCompletes(t *testing.T) {
	svc := testService(t)

	var tokens []string
	for tok := range svc.TokenStream(context.Background(), "prompt", 0) {
		tokens = append(tokens, tok)
	}
	if len(tokens) != len(tokenWords) {
		t.Fatalf("expected %d tokens got %d", len(tokenWords), len(tokens))
	}
	if tokens[0] != "Solving " {
		t.Fatalf("unexpected first token %q", tokens[0])
	}
}

func TestTokenStreamHonorsMaxTokens(t *testing.T) {
	svc := testService(t)

	count := 0
	for range svc.TokenStream(context.Background(), "prompt", 5) {
		count++
	}
	if count != 5 {
		t.Fatalf("expected 5 tokens got %d", count)
	}
}

func TestTokenStreamStopsOnCancel(t *testing.T) {
	svc := testService(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch := svc.TokenStream(ctx, "prompt", 0)
	<-ch
	cancel()

	// The channel must close promptly; no further production after cancel.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream did not close after cancellation")
		}
	}
}

func TestSolutionStreamDeterministic(t *testing.T) {
	svc := testService(t)

	collect := func() []string {
		var parts []string
		for p := range svc.SolutionStream(context.Background(), 42) {
			parts = append(parts, p)
		}
		return parts
	}

	first := collect()
	second := collect()
	if len(first) != len(solutionParts) {
		t.Fatalf("expected %d parts got %d", len(solutionParts), len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("part %d differs between runs", i)
		}
	}
}

func TestRecommendationsFilterBySkill(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	recs, err := svc.Recommendations(ctx, "u1", "beginner")
	if err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	for _, r := range recs {
		if r.Difficulty != models.DifficultyEasy {
			t.Fatalf("beginner got %s problem %q", r.Difficulty, r.Title)
		}
	}

	recs, err = svc.Recommendations(ctx, "u2", "intermediate")
	if err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	for _, r := range recs {
		if r.Difficulty == models.DifficultyHard {
			t.Fatalf("intermediate got hard problem %q", r.Title)
		}
	}

	recs, err = svc.Recommendations(ctx, "u3", "advanced")
	if err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	if len(recs) != len(recommendationPool) {
		t.Fatalf("advanced expected full pool, got %d", len(recs))
	}
}

func TestAnalyzeCodeScoreRange(t *testing.T) {
	svc := testService(t)

	analysis, err := svc.AnalyzeCode(context.Background(), "def f(): pass", "python")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.QualityScore < 0.6 || analysis.QualityScore > 0.95 {
		t.Fatalf("score %f outside expected range", analysis.QualityScore)
	}
	if analysis.Complexity.Time != "O(n)" {
		t.Fatalf("unexpected complexity %+v", analysis.Complexity)
	}
}

func TestTrainReportsBatches(t *testing.T) {
	svc := testService(t)

	samples := make([]map[string]any, 70)
	report, err := svc.Train(context.Background(), samples)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if report.Status != "completed" {
		t.Fatalf("unexpected status %q", report.Status)
	}
	if report.TrainingBatches != 3 {
		t.Fatalf("expected 3 batches for 70 samples at size 32, got %d", report.TrainingBatches)
	}
	if report.TotalSamples != 70 {
		t.Fatalf("expected 70 samples got %d", report.TotalSamples)
	}
	if report.FinalAccuracy < 0.7 || report.FinalAccuracy > 0.95 {
		t.Fatalf("accuracy %f outside expected range", report.FinalAccuracy)
	}
}

func TestMotivatorStreamEndsByDuration(t *testing.T) {
	m := NewMotivator(nil, nil)

	count := 0
	for item := range m.Stream(context.Background(), 10*time.Millisecond, 50*time.Millisecond) {
		if item.Quote == "" || item.Tip == "" {
			t.Fatal("empty motivation item")
		}
		count++
	}
	if count == 0 {
		t.Fatal("expected at least one item before the deadline")
	}
}

func TestMotivatorStreamStopsOnCancel(t *testing.T) {
	m := NewMotivator(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	ch := m.Stream(ctx, time.Millisecond, time.Hour)
	<-ch
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream did not close after cancellation")
		}
	}
}
