package services

import (
	"context"
	"fmt"
	"time"

	"nadin-revendedoras/models"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LevelThreshold: completed sales needed to reach a level
type LevelThreshold struct {
	Level    models.Level `json:"level"`
	MinSales int64        `json:"min_sales"`
}

// LevelThresholds is ordered from lowest to highest.
var LevelThresholds = []LevelThreshold{
	{Level: models.LevelPrincipiante, MinSales: 0},
	{Level: models.LevelBronce, MinSales: 10},
	{Level: models.LevelPlata, MinSales: 50},
	{Level: models.LevelOro, MinSales: 100},
	{Level: models.LevelDiamante, MinSales: 200},
	{Level: models.LevelLeyenda, MinSales: 500},
}

const (
	PointsPerThousand = 10
	FirstSaleBonus    = 50
	LevelUpPoints     = 100 // per level gained
)

// DetermineLevel returns the highest level whose threshold is met.
func DetermineLevel(totalSales int64) models.Level {
	for i := len(LevelThresholds) - 1; i >= 0; i-- {
		if totalSales >= LevelThresholds[i].MinSales {
			return LevelThresholds[i].Level
		}
	}
	return models.LevelPrincipiante
}

func levelIndex(level models.Level) int {
	for i, t := range LevelThresholds {
		if t.Level == level {
			return i
		}
	}
	return 0
}

// NextLevel returns the next level and its threshold, or false at the top.
func NextLevel(current models.Level) (LevelThreshold, bool) {
	i := levelIndex(current)
	if i+1 >= len(LevelThresholds) {
		return LevelThreshold{}, false
	}
	return LevelThresholds[i+1], true
}

// SalePoints: 10 points per full 1000 of sale amount
func SalePoints(amount float64) int64 {
	d := decimal.NewFromFloat(amount)
	if !d.IsPositive() {
		return 0
	}
	return d.Div(decimal.NewFromInt(1000)).Floor().IntPart() * PointsPerThousand
}

// RecalcResult describes one recalculation.
type RecalcResult struct {
	UserLevel     models.UserLevel `json:"user_level"`
	PreviousLevel models.Level     `json:"previous_level"`
	PointsAwarded int64            `json:"points_awarded"`
	NewBadges     []models.Badge   `json:"new_badges"`
}

type GamificationService struct {
	DB *gorm.DB
}

func NewGamificationService(db *gorm.DB) *GamificationService {
	return &GamificationService{DB: db}
}

// SeedBadges upserts the sales badge catalogue (idempotent).
func (s *GamificationService) SeedBadges(ctx context.Context) error {
	badges := make([]models.Badge, len(models.SalesBadges))
	copy(badges, models.SalesBadges)
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "icon", "kind", "threshold", "points"}),
	}).Create(&badges).Error
}

// OnOrderCompleted recounts sales, pays the order's sale points once, and books level-up
// points and newly crossed badges. Completing an order again (after a cancel or a payment
// reset) recounts the level but pays nothing twice.
func (s *GamificationService) OnOrderCompleted(ctx context.Context, userID, orderID string, saleAmount float64) (*RecalcResult, error) {
	var result *RecalcResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := s.recalculate(tx, userID)
		if err != nil {
			return err
		}

		points, err := s.awardSale(tx, userID, orderID, saleAmount)
		if err != nil {
			return err
		}
		res.PointsAwarded += points

		bonus, err := s.awardLevelUp(tx, &res.UserLevel, res.PreviousLevel)
		if err != nil {
			return err
		}
		res.PointsAwarded += bonus

		badges, badgePoints, err := s.unlockSalesBadges(tx, userID, res.UserLevel.TotalSales)
		if err != nil {
			return err
		}
		ambassador, ambassadorPoints, err := s.unlockAmbassadorBadges(tx, userID)
		if err != nil {
			return err
		}
		res.NewBadges = append(badges, ambassador...)
		res.PointsAwarded += badgePoints + ambassadorPoints

		result = res
		return nil
	})
	if err != nil {
		gamificationEventsCounter.WithLabelValues("completed", "failed").Inc()
		return nil, err
	}
	gamificationEventsCounter.WithLabelValues("completed", "success").Inc()

	log.Info().
		Str("user_id", userID).
		Int64("total_sales", result.UserLevel.TotalSales).
		Str("level", string(result.UserLevel.CurrentLevel)).
		Int64("points", result.PointsAwarded).
		Int("new_badges", len(result.NewBadges)).
		Msg("[GAMIFICATION] 🎮 order completed")
	return result, nil
}

// OnOrderCancelled recounts sales (the level may go down) and records an informational
// zero-amount ledger row. Points and badges already granted stay.
func (s *GamificationService) OnOrderCancelled(ctx context.Context, userID string) (*RecalcResult, error) {
	var result *RecalcResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := s.recalculate(tx, userID)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("Pedido cancelado: ventas recalculadas a %d", res.UserLevel.TotalSales)
		if err := appendPoints(tx, userID, 0, models.PointReasonCancel, desc); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		gamificationEventsCounter.WithLabelValues("cancelled", "failed").Inc()
		return nil, err
	}
	gamificationEventsCounter.WithLabelValues("cancelled", "success").Inc()

	log.Info().
		Str("user_id", userID).
		Int64("total_sales", result.UserLevel.TotalSales).
		Str("level", string(result.UserLevel.CurrentLevel)).
		Msg("[GAMIFICATION] order cancelled, level recalculated")
	return result, nil
}

// Recalculate refreshes level and sales without touching the ledger beyond the init row.
func (s *GamificationService) Recalculate(ctx context.Context, userID string) (*RecalcResult, error) {
	var result *RecalcResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := s.recalculate(tx, userID)
		result = res
		return err
	})
	return result, err
}

// awardSale books the order's sale points unless the order was already paid.
// The first-sale bonus goes with the reseller's first sale row.
func (s *GamificationService) awardSale(tx *gorm.DB, userID, orderID string, saleAmount float64) (int64, error) {
	var paid int64
	if err := tx.Model(&models.Point{}).
		Where("order_id = ? AND reason = ?", orderID, models.PointReasonSale).
		Count(&paid).Error; err != nil {
		return 0, err
	}
	if paid > 0 {
		log.Info().Str("user_id", userID).Str("order_id", orderID).Msg("[GAMIFICATION] order already credited, skipping sale points")
		return 0, nil
	}

	var priorSales int64
	if err := tx.Model(&models.Point{}).
		Where("user_id = ? AND reason = ?", userID, models.PointReasonSale).
		Count(&priorSales).Error; err != nil {
		return 0, err
	}

	points := SalePoints(saleAmount)
	desc := fmt.Sprintf("Venta completada por $%s", decimal.NewFromFloat(saleAmount).StringFixed(2))
	if priorSales == 0 {
		points += FirstSaleBonus
		desc += fmt.Sprintf(" (+%d primera venta)", FirstSaleBonus)
	}
	if points == 0 {
		return 0, nil
	}
	if err := tx.Create(&models.Point{
		UserID:      userID,
		OrderID:     &orderID,
		Amount:      points,
		Reason:      models.PointReasonSale,
		Description: desc,
	}).Error; err != nil {
		return 0, err
	}
	return points, nil
}

// awardLevelUp pays LevelUpPoints for every level above the highest one reached before.
func (s *GamificationService) awardLevelUp(tx *gorm.DB, lvl *models.UserLevel, previous models.Level) (int64, error) {
	reached := levelIndex(lvl.HighestLevel)
	if p := levelIndex(previous); p > reached {
		reached = p
	}
	current := levelIndex(lvl.CurrentLevel)
	if current <= levelIndex(lvl.HighestLevel) {
		return 0, nil
	}

	if err := tx.Model(&models.UserLevel{}).
		Where("id = ?", lvl.ID).
		Update("highest_level", lvl.CurrentLevel).Error; err != nil {
		return 0, err
	}
	lvl.HighestLevel = lvl.CurrentLevel

	gained := current - reached
	if gained <= 0 {
		return 0, nil
	}
	bonus := int64(gained) * LevelUpPoints
	desc := fmt.Sprintf("Subiste a nivel %s", lvl.CurrentLevel)
	if err := appendPoints(tx, lvl.UserID, bonus, models.PointReasonLevelUp, desc); err != nil {
		return 0, err
	}
	return bonus, nil
}

// recalculate counts completed orders from scratch and upserts the UserLevel.
// A first-time record gets a zero-amount init ledger row.
func (s *GamificationService) recalculate(tx *gorm.DB, userID string) (*RecalcResult, error) {
	var total int64
	if err := tx.Model(&models.Order{}).
		Scopes(models.CompletedOrders).
		Where("orders.user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting completed orders for %s: %w", userID, err)
	}

	lvl, created, err := ensureUserLevel(tx, userID)
	if err != nil {
		return nil, err
	}
	if created {
		if err := appendPoints(tx, userID, 0, models.PointReasonInit, "Registro de nivel creado"); err != nil {
			return nil, err
		}
	}

	previous := lvl.CurrentLevel
	if previous == "" {
		previous = models.LevelPrincipiante
	}
	newLevel := DetermineLevel(total)
	if levelIndex(newLevel) > levelIndex(previous) {
		now := time.Now()
		lvl.LastLevelUpAt = &now
	}
	lvl.CurrentLevel = newLevel
	lvl.TotalSales = total
	lvl.CurrentXP = total

	if err := tx.Save(&lvl).Error; err != nil {
		return nil, err
	}

	return &RecalcResult{UserLevel: lvl, PreviousLevel: previous}, nil
}

// ensureUserLevel inserts the reseller's level row if missing and loads it.
// A concurrent first insert for the same user is absorbed by the unique user_id.
func ensureUserLevel(tx *gorm.DB, userID string) (models.UserLevel, bool, error) {
	lvl := models.UserLevel{
		UserID:       userID,
		CurrentLevel: models.LevelPrincipiante,
		HighestLevel: models.LevelPrincipiante,
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&lvl)
	if res.Error != nil {
		return models.UserLevel{}, false, fmt.Errorf("creating level for %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 1 {
		return lvl, true, nil
	}

	lvl = models.UserLevel{}
	if err := tx.Where("user_id = ?", userID).First(&lvl).Error; err != nil {
		return models.UserLevel{}, false, fmt.Errorf("loading level for %s: %w", userID, err)
	}
	return lvl, false, nil
}

func (s *GamificationService) unlockSalesBadges(tx *gorm.DB, userID string, totalSales int64) ([]models.Badge, int64, error) {
	var eligible []models.Badge
	if err := tx.Where("kind = ? AND threshold <= ?", models.BadgeKindSales, totalSales).
		Order("threshold ASC").
		Find(&eligible).Error; err != nil {
		return nil, 0, err
	}
	return awardBadges(tx, userID, eligible)
}

// unlockAmbassadorBadges grants the per-brand badge once a reseller has enough completed orders of that brand.
func (s *GamificationService) unlockAmbassadorBadges(tx *gorm.DB, userID string) ([]models.Badge, int64, error) {
	var rows []struct {
		Brand  string
		Orders int64
	}
	if err := tx.Model(&models.OrderItem{}).
		Select("order_items.brand AS brand, COUNT(DISTINCT order_items.order_id) AS orders").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Scopes(models.CompletedOrders).
		Where("orders.user_id = ?", userID).
		Group("order_items.brand").
		Having("COUNT(DISTINCT order_items.order_id) >= ?", models.AmbassadorThreshold).
		Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("counting brand orders for %s: %w", userID, err)
	}

	var eligible []models.Badge
	for _, r := range rows {
		if r.Brand == "" || r.Brand == models.NoBrand {
			continue
		}
		badge := models.Badge{
			ID:          "embajadora_" + slug.Make(r.Brand),
			Name:        "Embajadora de Marca: " + r.Brand,
			Description: fmt.Sprintf("%d ventas completadas de %s", models.AmbassadorThreshold, r.Brand),
			Icon:        "star",
			Kind:        models.BadgeKindAmbassador,
			Brand:       r.Brand,
			Threshold:   models.AmbassadorThreshold,
			Points:      models.AmbassadorPoints,
		}
		if err := tx.Where(models.Badge{ID: badge.ID}).FirstOrCreate(&badge).Error; err != nil {
			return nil, 0, err
		}
		eligible = append(eligible, badge)
	}
	return awardBadges(tx, userID, eligible)
}

// awardBadges unlocks each badge at most once and books its points.
func awardBadges(tx *gorm.DB, userID string, eligible []models.Badge) ([]models.Badge, int64, error) {
	var unlocked []models.Badge
	var points int64
	for _, badge := range eligible {
		var count int64
		if err := tx.Model(&models.UserBadge{}).
			Where("user_id = ? AND badge_id = ?", userID, badge.ID).
			Count(&count).Error; err != nil {
			return nil, 0, err
		}
		if count > 0 {
			continue
		}
		if err := tx.Create(&models.UserBadge{UserID: userID, BadgeID: badge.ID}).Error; err != nil {
			return nil, 0, err
		}
		if err := appendPoints(tx, userID, badge.Points, models.PointReasonBadge, "Insignia desbloqueada: "+badge.Name); err != nil {
			return nil, 0, err
		}
		points += badge.Points
		unlocked = append(unlocked, badge)
		log.Info().Str("user_id", userID).Str("badge", badge.ID).Msg("[GAMIFICATION] 🎖️ badge unlocked")
	}
	return unlocked, points, nil
}

func appendPoints(tx *gorm.DB, userID string, amount int64, reason models.PointReason, description string) error {
	return tx.Create(&models.Point{
		UserID:      userID,
		Amount:      amount,
		Reason:      reason,
		Description: description,
	}).Error
}
