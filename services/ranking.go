package services

import (
	"context"
	"errors"
	"fmt"

	"nadin-revendedoras/models"

	"gorm.io/gorm"
)

// LeaderboardEntry is one row of the public ranking.
type LeaderboardEntry struct {
	Position     int          `json:"position"`
	UserID       string       `json:"user_id"`
	Name         string       `json:"name"`
	CurrentLevel models.Level `json:"current_level"`
	TotalSales   int64        `json:"total_sales"`
	TotalPoints  int64        `json:"total_points"`
	Badges       int64        `json:"badges"`
}

// UserSummary is the progress card of one reseller.
type UserSummary struct {
	UserLevel      models.UserLevel `json:"user_level"`
	TotalPoints    int64            `json:"total_points"`
	Badges         int64            `json:"badges"`
	NextLevel      *models.Level    `json:"next_level,omitempty"`
	SalesToNext    int64            `json:"sales_to_next"`
	ProgressToNext float64          `json:"progress_to_next"` // 0..1
}

type RankingService struct {
	DB *gorm.DB
}

func NewRankingService(db *gorm.DB) *RankingService {
	return &RankingService{DB: db}
}

// Leaderboard orders resellers by completed sales, then points.
func (s *RankingService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var rows []LeaderboardEntry
	err := s.DB.WithContext(ctx).Raw(`
		SELECT ul.user_id,
		       COALESCE(r.name, '') AS name,
		       ul.current_level,
		       ul.total_sales,
		       COALESCE(p.total, 0) AS total_points,
		       COALESCE(b.total, 0) AS badges
		FROM user_levels ul
		LEFT JOIN resellers r ON r.external_user_id = ul.user_id
		LEFT JOIN (SELECT user_id, SUM(amount) AS total FROM points GROUP BY user_id) p ON p.user_id = ul.user_id
		LEFT JOIN (SELECT user_id, COUNT(*) AS total FROM user_badges GROUP BY user_id) b ON b.user_id = ul.user_id
		ORDER BY ul.total_sales DESC, total_points DESC, ul.user_id ASC
		LIMIT ?
	`, limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loading leaderboard: %w", err)
	}
	for i := range rows {
		rows[i].Position = i + 1
	}
	return rows, nil
}

// TotalPoints sums the ledger for a user.
func (s *RankingService) TotalPoints(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := s.DB.WithContext(ctx).Model(&models.Point{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	return total, err
}

// PointsHistory returns ledger rows newest first.
func (s *RankingService) PointsHistory(ctx context.Context, userID string, page, size int) ([]models.Point, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	var points []models.Point
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&points).Error
	return points, err
}

// UserBadges returns unlocked badges with their catalogue entry.
func (s *RankingService) UserBadges(ctx context.Context, userID string) ([]models.UserBadge, error) {
	var badges []models.UserBadge
	err := s.DB.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("unlocked_at ASC").
		Find(&badges).Error
	return badges, err
}

// UserSummary builds the progress card. A missing level record is created through gamification.
func (s *RankingService) UserSummary(ctx context.Context, gamification *GamificationService, userID string) (*UserSummary, error) {
	var lvl models.UserLevel
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&lvl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		res, recalcErr := gamification.Recalculate(ctx, userID)
		if recalcErr != nil {
			return nil, recalcErr
		}
		lvl = res.UserLevel
	} else if err != nil {
		return nil, err
	}

	points, err := s.TotalPoints(ctx, userID)
	if err != nil {
		return nil, err
	}
	var badges int64
	if err := s.DB.WithContext(ctx).Model(&models.UserBadge{}).Where("user_id = ?", userID).Count(&badges).Error; err != nil {
		return nil, err
	}

	summary := &UserSummary{UserLevel: lvl, TotalPoints: points, Badges: badges, ProgressToNext: 1}
	if next, ok := NextLevel(lvl.CurrentLevel); ok {
		current := LevelThresholds[levelIndex(lvl.CurrentLevel)].MinSales
		summary.NextLevel = &next.Level
		summary.SalesToNext = max(next.MinSales-lvl.TotalSales, 0)
		span := next.MinSales - current
		summary.ProgressToNext = float64(lvl.TotalSales-current) / float64(span)
	}
	return summary, nil
}
