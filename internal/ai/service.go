// Package ai is the canned response producer: bulk replies, token and
// solution streams, recommendations, code analysis, and simulated training.
package ai

import (
	"context"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/bhupeshcoding/codecoach/config"
	"github.com/bhupeshcoding/codecoach/internal/cache"
	"github.com/bhupeshcoding/codecoach/models"
	"github.com/bhupeshcoding/codecoach/utils"
)

// Service produces coaching content. Responses and recommendations are
// memoized through the shared cache manager; the simulated delays come from
// configuration so tests can shrink them.
type Service struct {
	cfg       config.AIConfig
	cache     *cache.Manager
	motivator *Motivator
	respTTL   time.Duration
	recsTTL   time.Duration
	logger    *log.Logger
}

// New wires the producer to its collaborators.
func New(cfg *config.Config, cm *cache.Manager, motivator *Motivator) *Service {
	return &Service{
		cfg:       cfg.AI,
		cache:     cm,
		motivator: motivator,
		respTTL:   cfg.Cache.ResponseTTL,
		recsTTL:   cfg.Cache.RecsTTL,
		logger:    log.New(log.Writer(), "[AI] ", log.LstdFlags),
	}
}

// Motivator exposes the underlying quote/tip source.
func (s *Service) Motivator() *Motivator { return s.motivator }

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Generate produces one complete reply for a prompt. Identical calls within
// the response TTL are served from the external cache tier without re-running
// the producer.
func (s *Service) Generate(ctx context.Context, prompt string, promptCtx map[string]any) (string, error) {
	key := cache.Fingerprint("ai_response", "generate", prompt, promptCtx)
	return cache.Remember(ctx, s.cache, key, s.respTTL, func(ctx context.Context) (string, error) {
		if err := sleepCtx(ctx, s.cfg.ResponseDelay); err != nil {
			return "", err
		}
		lower := strings.ToLower(prompt)
		switch {
		case strings.Contains(lower, "leetcode"):
			return s.leetcodeResponse(promptCtx), nil
		case strings.Contains(lower, "motivation"):
			return s.motivator.RandomQuote(), nil
		default:
			return generalResponses[rand.Intn(len(generalResponses))], nil
		}
	})
}

func (s *Service) leetcodeResponse(promptCtx map[string]any) string {
	response := leetcodeResponses[rand.Intn(len(leetcodeResponses))]
	difficulty, _ := promptCtx["difficulty"].(string)
	switch difficulty {
	case models.DifficultyHard:
		response += " This is a challenging problem that will push your limits!"
	case models.DifficultyMedium:
		response += " This medium-level problem is perfect for skill building."
	case models.DifficultyEasy:
		response += " This is a great starting point to build confidence!"
	}
	return response
}

// TokenStream emits the reply for prompt word by word, paced by the token
// delay, up to maxTokens words. The channel closes after the last token or
// as soon as ctx is done.
func (s *Service) TokenStream(ctx context.Context, prompt string, maxTokens int) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		for i, word := range tokenWords {
			if maxTokens > 0 && i >= maxTokens {
				return
			}
			select {
			case out <- word + " ":
			case <-ctx.Done():
				return
			}
			if err := sleepCtx(ctx, s.cfg.TokenDelay); err != nil {
				return
			}
		}
	}()
	return out
}

// SolutionStream emits the fixed solution explanation for a problem as an
// ordered, one-shot fragment sequence. Deterministic for any input.
func (s *Service) SolutionStream(ctx context.Context, problemID int) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		for _, part := range solutionParts {
			select {
			case out <- part:
			case <-ctx.Done():
				return
			}
			if err := sleepCtx(ctx, s.cfg.ChunkDelay); err != nil {
				return
			}
		}
	}()
	return out
}

// Recommendations filters the fixed candidate set by skill level:
// beginner keeps Easy, intermediate keeps Easy+Medium, anything else keeps
// all. Results are cached for the recommendations TTL.
func (s *Service) Recommendations(ctx context.Context, userID, skillLevel string) ([]models.Recommendation, error) {
	key := cache.Fingerprint("problem_recommendations", "recommendations", userID, skillLevel)
	return cache.Remember(ctx, s.cache, key, s.recsTTL, func(ctx context.Context) ([]models.Recommendation, error) {
		if err := sleepCtx(ctx, s.cfg.ResponseDelay); err != nil {
			return nil, err
		}
		var out []models.Recommendation
		for _, p := range recommendationPool {
			switch skillLevel {
			case "beginner":
				if p.Difficulty == models.DifficultyEasy {
					out = append(out, p)
				}
			case "intermediate":
				if p.Difficulty == models.DifficultyEasy || p.Difficulty == models.DifficultyMedium {
					out = append(out, p)
				}
			default:
				out = append(out, p)
			}
		}
		return out, nil
	})
}

// AnalyzeCode returns a randomized quality score with fixed feedback.
func (s *Service) AnalyzeCode(ctx context.Context, code, language string) (models.CodeAnalysis, error) {
	if err := sleepCtx(ctx, s.cfg.ResponseDelay); err != nil {
		return models.CodeAnalysis{}, err
	}
	return models.CodeAnalysis{
		QualityScore: 0.6 + rand.Float64()*0.35,
		Language:     language,
		Suggestions: []string{
			"Consider adding more comments for clarity",
			"Variable names could be more descriptive",
			"Good use of efficient algorithms!",
		},
		Complexity: models.Complexity{Time: "O(n)", Space: "O(1)"},
		Strengths: []string{
			"Clean code structure",
			"Efficient implementation",
			"Good error handling",
		},
	}, nil
}

// Train simulates batched model training over the samples. The whole run is
// retried with exponential backoff; the last failure is returned after the
// attempts are exhausted.
func (s *Service) Train(ctx context.Context, samples []map[string]any) (models.TrainingReport, error) {
	var report models.TrainingReport
	err := utils.Retry(ctx, s.cfg.TrainMaxAttempts, s.cfg.TrainRetryDelay, 2.0, func(ctx context.Context) error {
		r, err := s.trainOnce(ctx, samples)
		if err != nil {
			return err
		}
		report = r
		return nil
	})
	if err != nil {
		return models.TrainingReport{}, &models.UpstreamError{Op: "training", Err: err}
	}
	return report, nil
}

func (s *Service) trainOnce(ctx context.Context, samples []map[string]any) (models.TrainingReport, error) {
	s.logger.Printf("starting training on %d samples", len(samples))

	batchSize := s.cfg.TrainBatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	var accuracies []float64
	for i := 0; i < len(samples); i += batchSize {
		if err := sleepCtx(ctx, s.cfg.ChunkDelay); err != nil {
			return models.TrainingReport{}, err
		}
		accuracies = append(accuracies, 0.7+rand.Float64()*0.25)
	}
	if len(accuracies) == 0 {
		accuracies = append(accuracies, 0.7+rand.Float64()*0.25)
	}

	var sum float64
	for _, a := range accuracies {
		sum += a
	}
	return models.TrainingReport{
		Status:          "completed",
		FinalAccuracy:   sum / float64(len(accuracies)),
		TrainingBatches: len(accuracies),
		TotalSamples:    len(samples),
	}, nil
}
