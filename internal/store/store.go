// Package store is the embedded relational layer: the problem catalog, user
// progress rows, and the motivational content pool. The server treats it as
// an enrichment and falls back to built-in data when it is unavailable.
package store

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bhupeshcoding/codecoach/models"
)

// StringList stores a []string as a JSON column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported StringList source %T", src)
	}
}

// LeetCodeProblem is one catalog row.
type LeetCodeProblem struct {
	ID              uint       `gorm:"primaryKey"`
	ProblemID       int        `gorm:"uniqueIndex"`
	Title           string     `gorm:"size:255;not null"`
	Difficulty      string     `gorm:"size:50;not null"`
	Description     string     `gorm:"type:text;not null"`
	Solution        string     `gorm:"type:text"`
	Hints           StringList `gorm:"type:json"`
	Tags            StringList `gorm:"type:json"`
	AcceptanceRate  float64
	Frequency       float64
	Companies       StringList `gorm:"type:json"`
	SimilarProblems StringList `gorm:"type:json"`
	TimeComplexity  string     `gorm:"size:100"`
	SpaceComplexity string     `gorm:"size:100"`
	IsPremium       bool       `gorm:"default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// UserProgress records one user's interaction with one problem.
type UserProgress struct {
	ID               uint   `gorm:"primaryKey"`
	UserID           string `gorm:"size:100;not null;index"`
	ProblemID        int    `gorm:"not null"`
	Status           string `gorm:"size:50;not null"` // solved, attempted, skipped
	Attempts         int    `gorm:"default:0"`
	TimeSpent        int    // seconds
	SolutionCode     string `gorm:"type:text"`
	Language         string `gorm:"size:50"`
	PerformanceScore float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// MotivationalContent is one quote, tip or achievement in the pool.
type MotivationalContent struct {
	ID              uint   `gorm:"primaryKey"`
	ContentType     string `gorm:"size:50;not null"` // quote, tip, achievement
	Title           string `gorm:"size:255"`
	Content         string `gorm:"type:text;not null"`
	Category        string `gorm:"size:100"`
	DifficultyLevel string `gorm:"size:50"`
	IsActive        bool   `gorm:"default:true"`
	CreatedAt       time.Time
}

// ProgressStats aggregates a user's progress rows.
type ProgressStats struct {
	ProblemsSolved      int            `json:"problems_solved"`
	TotalAttempts       int            `json:"total_attempts"`
	DifficultyBreakdown map[string]int `json:"difficulty_breakdown"`
}

// Store wraps the gorm handle.
type Store struct {
	db     *gorm.DB
	logger *log.Logger
}

// Open opens (or creates) the sqlite database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	if err := db.AutoMigrate(&LeetCodeProblem{}, &UserProgress{}, &MotivationalContent{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Store{db: db, logger: log.New(log.Writer(), "[STORE] ", log.LstdFlags)}, nil
}

// Seed loads the catalog and motivation pool unless rows already exist.
func (s *Store) Seed(problems []models.Problem, quotes, tips []string) error {
	var count int64
	s.db.Model(&LeetCodeProblem{}).Count(&count)
	if count == 0 {
		for _, p := range problems {
			row := LeetCodeProblem{
				ProblemID:      p.ID,
				Title:          p.Title,
				Difficulty:     p.Difficulty,
				Description:    p.Description,
				Tags:           StringList(p.Tags),
				AcceptanceRate: p.AcceptanceRate,
				Frequency:      p.Frequency,
			}
			if err := s.db.Create(&row).Error; err != nil {
				return fmt.Errorf("seed problem %d: %w", p.ID, err)
			}
		}
		s.logger.Printf("seeded %d problems", len(problems))
	}

	s.db.Model(&MotivationalContent{}).Count(&count)
	if count == 0 {
		for _, q := range quotes {
			if err := s.db.Create(&MotivationalContent{ContentType: "quote", Content: q, IsActive: true}).Error; err != nil {
				return fmt.Errorf("seed quote: %w", err)
			}
		}
		for _, tip := range tips {
			if err := s.db.Create(&MotivationalContent{ContentType: "tip", Content: tip, IsActive: true}).Error; err != nil {
				return fmt.Errorf("seed tip: %w", err)
			}
		}
		s.logger.Printf("seeded %d quotes, %d tips", len(quotes), len(tips))
	}
	return nil
}

// ListProblems returns the catalog ordered by problem id.
func (s *Store) ListProblems(ctx context.Context) ([]models.Problem, error) {
	var rows []LeetCodeProblem
	if err := s.db.WithContext(ctx).Order("problem_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	problems := make([]models.Problem, 0, len(rows))
	for _, r := range rows {
		problems = append(problems, models.Problem{
			ID:             r.ProblemID,
			Title:          r.Title,
			Difficulty:     r.Difficulty,
			Description:    r.Description,
			Tags:           []string(r.Tags),
			AcceptanceRate: r.AcceptanceRate,
			Frequency:      r.Frequency,
		})
	}
	return problems, nil
}

// ProblemsByDifficulty returns the catalog slice for one difficulty tier.
func (s *Store) ProblemsByDifficulty(ctx context.Context, difficulty string) ([]models.Problem, error) {
	var rows []LeetCodeProblem
	err := s.db.WithContext(ctx).
		Where("difficulty = ?", difficulty).
		Order("problem_id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	problems := make([]models.Problem, 0, len(rows))
	for _, r := range rows {
		problems = append(problems, models.Problem{
			ID:             r.ProblemID,
			Title:          r.Title,
			Difficulty:     r.Difficulty,
			Description:    r.Description,
			Tags:           []string(r.Tags),
			AcceptanceRate: r.AcceptanceRate,
			Frequency:      r.Frequency,
		})
	}
	return problems, nil
}

// ActiveMotivation returns the active pool for one content type.
func (s *Store) ActiveMotivation(ctx context.Context, contentType string) ([]string, error) {
	var rows []MotivationalContent
	err := s.db.WithContext(ctx).
		Where("content_type = ? AND is_active = ?", contentType, true).
		Order("id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Content)
	}
	return out, nil
}

// RecordProgress upserts one progress row per (user, problem).
func (s *Store) RecordProgress(ctx context.Context, userID string, problemID int, status, language string, score float64) error {
	var row UserProgress
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND problem_id = ?", userID, problemID).
		First(&row).Error
	switch {
	case err == nil:
		row.Status = status
		row.Attempts++
		row.Language = language
		row.PerformanceScore = score
		return s.db.WithContext(ctx).Save(&row).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = UserProgress{
			UserID: userID, ProblemID: problemID, Status: status,
			Attempts: 1, Language: language, PerformanceScore: score,
		}
		return s.db.WithContext(ctx).Create(&row).Error
	default:
		return err
	}
}

// ProgressStats aggregates the user's rows, joining the catalog for the
// per-difficulty breakdown.
func (s *Store) ProgressStats(ctx context.Context, userID string) (ProgressStats, error) {
	stats := ProgressStats{DifficultyBreakdown: map[string]int{}}

	var rows []UserProgress
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return stats, err
	}
	var catalog []LeetCodeProblem
	if err := s.db.WithContext(ctx).Find(&catalog).Error; err != nil {
		return stats, err
	}
	difficulties := make(map[int]string, len(catalog))
	for _, p := range catalog {
		difficulties[p.ProblemID] = p.Difficulty
	}
	for _, r := range rows {
		stats.TotalAttempts += r.Attempts
		if r.Status == "solved" {
			stats.ProblemsSolved++
			if d, ok := difficulties[r.ProblemID]; ok {
				stats.DifficultyBreakdown[d]++
			}
		}
	}
	return stats, nil
}
