package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bhupeshcoding/codecoach/config"
	"github.com/bhupeshcoding/codecoach/internal/ai"
	"github.com/bhupeshcoding/codecoach/internal/cache"
	"github.com/bhupeshcoding/codecoach/internal/jobs"
	"github.com/bhupeshcoding/codecoach/internal/limiter"
	"github.com/bhupeshcoding/codecoach/internal/store"
	"github.com/bhupeshcoding/codecoach/models"
)

// LeetCodeHandler serves the problem catalog, solution streaming, code
// analysis, recommendations, training jobs, motivation streaming and
// progress stats.
type LeetCodeHandler struct {
	AI      *ai.Service
	Store   *store.Store // nil means catalog falls back to built-in data
	Jobs    *jobs.Manager
	Cache   *cache.Manager
	Limiter *limiter.Limiter
	cfg     *config.Config
	logger  *log.Logger
}

// Register mounts the leetcode routes on g.
func (h *LeetCodeHandler) Register(g *echo.Group) {
	g.GET("/problems/top150", h.top150, limiter.Middleware(h.Limiter))
	g.GET("/problems/:problem_id/solution/stream", h.streamSolution)
	g.POST("/problems/analyze", h.analyze)
	g.GET("/recommendations/:user_id", h.recommendations)
	g.POST("/train", h.train)
	g.GET("/train/:job_id", h.trainStatus)
	g.GET("/motivation/stream", h.streamMotivation)
	g.GET("/stats/progress", h.progressStats)
}

// top150 returns the problem catalog, optionally narrowed to one difficulty
// tier, enriched with a daily tip and encouragement per problem. The store is
// preferred; the built-in catalog is the fallback. Catalog reads are memoized
// in the local cache tier since the catalog only changes on reseed.
func (h *LeetCodeHandler) top150(c echo.Context) error {
	ctx := c.Request().Context()
	difficulty := c.QueryParam("difficulty")

	key := cache.Fingerprint("catalog", "top150", difficulty)
	problems, err := cache.RememberLocal(ctx, h.Cache, key, h.cfg.Cache.DefaultTTL,
		func(ctx context.Context) ([]models.Problem, error) {
			if h.Store != nil {
				var rows []models.Problem
				var err error
				if difficulty != "" {
					rows, err = h.Store.ProblemsByDifficulty(ctx, difficulty)
				} else {
					rows, err = h.Store.ListProblems(ctx)
				}
				if err != nil {
					h.logger.Printf("catalog query failed, using built-ins: %v", err)
				} else if len(rows) > 0 {
					return rows, nil
				}
			}
			builtins := ai.TopProblems()
			if difficulty == "" {
				return builtins, nil
			}
			var out []models.Problem
			for _, p := range builtins {
				if p.Difficulty == difficulty {
					out = append(out, p)
				}
			}
			return out, nil
		})
	if err != nil {
		return err
	}

	motivator := h.AI.Motivator()
	enriched := make([]map[string]any, 0, len(problems))
	for _, p := range problems {
		enriched = append(enriched, map[string]any{
			"id":              p.ID,
			"title":           p.Title,
			"difficulty":      p.Difficulty,
			"description":     p.Description,
			"motivation":      p.Motivation,
			"tags":            p.Tags,
			"acceptance_rate": p.AcceptanceRate,
			"frequency":       p.Frequency,
			"daily_tip":       motivator.DailyTip(),
			"encouragement":   "Every expert was once a beginner. Keep coding!",
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message":        "Welcome to your coding journey! These problems will transform you into a coding master!",
		"total_problems": len(enriched),
		"problems":       enriched,
		"motivation":     "Remember: The only way to learn programming is by solving problems. You're on the right path!",
	})
}

// streamSolution pushes the solution explanation chunk by chunk over SSE,
// closing with a done frame.
func (h *LeetCodeHandler) streamSolution(c echo.Context) error {
	problemID, err := strconv.Atoi(c.Param("problem_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid problem id")
	}

	flusher, err := openStream(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	for chunk := range h.AI.SolutionStream(ctx, problemID) {
		if err := sendEvent(c, flusher, map[string]any{"content": chunk}); err != nil {
			h.logger.Printf("solution stream aborted: %v", err)
			return nil
		}
	}
	if ctx.Err() == nil {
		_ = sendEvent(c, flusher, map[string]any{"done": true})
	}
	return nil
}

type analyzeRequest struct {
	ProblemID int    `json:"problem_id"`
	UserCode  string `json:"user_code"`
	Language  string `json:"language"`
	UserID    string `json:"user_id"`
}

// analyze scores the submitted code and attaches score-based motivation.
// Progress recording is best effort.
func (h *LeetCodeHandler) analyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Language == "" {
		req.Language = "python"
	}

	ctx := c.Request().Context()
	analysis, err := h.AI.AnalyzeCode(ctx, req.UserCode, req.Language)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Analysis failed: %v", err))
	}

	switch {
	case analysis.QualityScore > 0.8:
		analysis.Motivation = "Excellent work! Your code quality is outstanding!"
	case analysis.QualityScore > 0.6:
		analysis.Motivation = "Good job! A few tweaks and you'll have perfect code!"
	default:
		analysis.Motivation = "Keep improving! Every iteration makes you better!"
	}

	if h.Store != nil && req.UserID != "" {
		if err := h.Store.RecordProgress(ctx, req.UserID, req.ProblemID, "attempted", req.Language, analysis.QualityScore); err != nil {
			h.logger.Printf("progress record failed: %v", err)
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"problem_id":    req.ProblemID,
		"analysis":      analysis,
		"encouragement": "Code review is how we grow. Keep pushing forward!",
	})
}

// recommendations returns problems filtered for the user's skill level.
func (h *LeetCodeHandler) recommendations(c echo.Context) error {
	userID := c.Param("user_id")
	skillLevel := c.QueryParam("skill_level")
	if skillLevel == "" {
		skillLevel = "intermediate"
	}

	recs, err := h.AI.Recommendations(c.Request().Context(), userID, skillLevel)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Failed to get recommendations: %v", err))
	}

	return c.JSON(http.StatusOK, map[string]any{
		"user_id":         userID,
		"skill_level":     skillLevel,
		"recommendations": recs,
		"motivation":      fmt.Sprintf("Perfect problems for your %s level! Challenge yourself and grow!", skillLevel),
	})
}

type trainRequest struct {
	Data      []map[string]any `json:"data"`
	ModelType string           `json:"model_type"`
}

// train launches a background training job and returns its handle
// immediately. The job keeps running after this request completes.
func (h *LeetCodeHandler) train(c echo.Context) error {
	var req trainRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ModelType == "" {
		req.ModelType = "classification"
	}

	samples := req.Data
	job := h.Jobs.Start(func(ctx context.Context) (any, error) {
		return h.AI.Train(ctx, samples)
	})

	return c.JSON(http.StatusOK, map[string]any{
		"message":          "AI training started! Your model is learning and improving!",
		"job_id":           job.ID,
		"training_samples": len(samples),
		"model_type":       req.ModelType,
		"status":           "training_initiated",
		"motivation":       "Teaching AI is like teaching yourself - both grow stronger!",
	})
}

// trainStatus reports the current state of a training job.
func (h *LeetCodeHandler) trainStatus(c echo.Context) error {
	job, err := h.Jobs.Get(c.Param("job_id"))
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "training job not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, job.Snapshot())
}

// streamMotivation pushes quote/tip pairs over SSE for the requested
// duration (capped at five minutes), then a done frame.
func (h *LeetCodeHandler) streamMotivation(c echo.Context) error {
	duration := h.cfg.AI.MotivationDuration
	if raw := c.QueryParam("duration"); raw != "" {
		if sec, err := strconv.Atoi(raw); err == nil && sec > 0 {
			duration = time.Duration(sec) * time.Second
		}
	}
	if duration > 5*time.Minute {
		duration = 5 * time.Minute
	}

	flusher, err := openStream(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	for item := range h.AI.Motivator().Stream(ctx, h.cfg.AI.MotivationInterval, duration) {
		if err := sendEvent(c, flusher, item); err != nil {
			h.logger.Printf("motivation stream aborted: %v", err)
			return nil
		}
	}
	if ctx.Err() == nil {
		_ = sendEvent(c, flusher, map[string]any{"done": true})
	}
	return nil
}

// progressStats returns progress statistics. Demo figures are the baseline;
// real rows from the store override them when a user_id is given.
func (h *LeetCodeHandler) progressStats(c echo.Context) error {
	stats := map[string]any{
		"problems_solved": 45,
		"total_problems":  150,
		"completion_rate": 0.30,
		"streak_days":     12,
		"favorite_topics": []string{"Arrays", "Dynamic Programming", "Trees"},
		"difficulty_breakdown": map[string]int{
			"Easy":   20,
			"Medium": 20,
			"Hard":   5,
		},
		"motivation":     "12-day streak! You're building an incredible habit!",
		"next_milestone": "Reach 50 problems solved",
		"encouragement":  "Consistency beats perfection. Keep showing up!",
	}

	if userID := c.QueryParam("user_id"); userID != "" && h.Store != nil {
		agg, err := h.Store.ProgressStats(c.Request().Context(), userID)
		if err != nil {
			h.logger.Printf("progress stats query failed: %v", err)
		} else {
			stats["problems_solved"] = agg.ProblemsSolved
			stats["total_attempts"] = agg.TotalAttempts
			stats["difficulty_breakdown"] = agg.DifficultyBreakdown
		}
	}

	return c.JSON(http.StatusOK, stats)
}
