package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nadin-revendedoras/models"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidState      = errors.New("invalid order state")
	ErrInvalidTransition = errors.New("cancelled orders cannot change state")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrMissingClientName = errors.New("client name is required")
	ErrInvalidQuantity   = errors.New("item quantity must be positive")
	ErrVariantNotFound   = errors.New("variant not found in product")
	ErrOutOfStock        = errors.New("not enough stock for variant")
	ErrNoPendingOrders   = errors.New("no pending orders to consolidate")
)

type OrderItemRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
}

type CreateOrderRequest struct {
	ClientName   string             `json:"client_name"`
	ClientPhone  string             `json:"client_phone"`
	Notes        string             `json:"notes"`
	PaidByClient bool               `json:"paid_by_client"`
	Items        []OrderItemRequest `json:"items"`
}

// StatusUpdate: nil fields are left untouched
type StatusUpdate struct {
	State        *models.OrderState `json:"state"`
	PaidByClient *bool              `json:"paid_by_client"`
}

// StatusUpdateResult carries the saved order and the gamification outcome.
// GamificationError is set when recalculation failed after the order was saved.
type StatusUpdateResult struct {
	Order             models.Order  `json:"order"`
	Gamification      *RecalcResult `json:"gamification,omitempty"`
	GamificationError string        `json:"gamification_error,omitempty"`
}

type OrderService struct {
	DB           *gorm.DB
	Catalog      *CatalogCache
	Gamification *GamificationService
	now          func() time.Time
}

func NewOrderService(db *gorm.DB, cache *CatalogCache, gamification *GamificationService) *OrderService {
	return &OrderService{DB: db, Catalog: cache, Gamification: gamification, now: time.Now}
}

// EnsureReseller returns the local reseller record, creating it with the default markup.
func (s *OrderService) EnsureReseller(ctx context.Context, userID string) (*models.Reseller, error) {
	reseller := models.Reseller{ExternalUserID: userID, MarkupPercent: models.DefaultMarkupPercent}
	if err := s.DB.WithContext(ctx).
		Where(models.Reseller{ExternalUserID: userID}).
		FirstOrCreate(&reseller).Error; err != nil {
		return nil, fmt.Errorf("ensuring reseller %s: %w", userID, err)
	}
	return &reseller, nil
}

// UpdateMarkup sets the reseller's retail markup for future orders.
func (s *OrderService) UpdateMarkup(ctx context.Context, userID string, percent float64) (*models.Reseller, error) {
	if percent < 0 {
		return nil, fmt.Errorf("markup must not be negative: %v", percent)
	}
	reseller, err := s.EnsureReseller(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(reseller).Update("markup_percent", percent).Error; err != nil {
		return nil, err
	}
	reseller.MarkupPercent = percent
	return reseller, nil
}

// CreateOrder prices every item from the cached catalog and stores a pendiente order.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, req CreateOrderRequest) (*models.Order, error) {
	if strings.TrimSpace(req.ClientName) == "" {
		return nil, ErrMissingClientName
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	reseller, err := s.EnsureReseller(ctx, userID)
	if err != nil {
		return nil, err
	}
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(reseller.MarkupPercent).Div(decimal.NewFromInt(100)))

	order := models.Order{
		UserID:        userID,
		ClientName:    strings.TrimSpace(req.ClientName),
		ClientPhone:   req.ClientPhone,
		Notes:         req.Notes,
		State:         models.OrderStatePendiente,
		PaidByClient:  req.PaidByClient,
		MarkupPercent: reseller.MarkupPercent,
	}

	wholesaleTotal := decimal.Zero
	total := decimal.Zero
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %s/%s", ErrInvalidQuantity, it.ProductID, it.VariantID)
		}
		product, err := s.Catalog.GetProduct(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		variant, ok := product.FindVariant(it.VariantID)
		if !ok {
			return nil, fmt.Errorf("%w: %s/%s", ErrVariantNotFound, it.ProductID, it.VariantID)
		}
		if variant.Stock < it.Quantity {
			return nil, fmt.Errorf("%w: %s/%s (stock %d, requested %d)", ErrOutOfStock, it.ProductID, it.VariantID, variant.Stock, it.Quantity)
		}

		wholesale := decimal.NewFromFloat(variant.Price)
		unit := wholesale.Mul(factor).Round(2)
		qty := decimal.NewFromInt(it.Quantity)
		wholesaleTotal = wholesaleTotal.Add(wholesale.Mul(qty))
		total = total.Add(unit.Mul(qty))

		order.Items = append(order.Items, models.OrderItem{
			ProductID:      product.ID,
			VariantID:      variant.ID,
			Name:           product.Name,
			Brand:          product.Brand,
			SKU:            variant.SKU,
			Talle:          variant.Talle,
			Color:          variant.Color,
			Quantity:       it.Quantity,
			WholesalePrice: wholesale.InexactFloat64(),
			UnitPrice:      unit.InexactFloat64(),
		})
	}
	order.WholesaleTotal = wholesaleTotal.Round(2).InexactFloat64()
	order.Total = total.Round(2).InexactFloat64()

	if err := s.DB.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}

	log.Info().
		Str("user_id", userID).
		Str("order_id", order.ID).
		Int("items", len(order.Items)).
		Float64("total", order.Total).
		Msg("[ORDERS] 🛍️ order created")
	return &order, nil
}

// GetOrder loads one order of a reseller with its items.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns a reseller's orders newest first, optionally narrowed to one state.
func (s *OrderService) ListOrders(ctx context.Context, userID string, state *models.OrderState) ([]models.Order, error) {
	q := s.DB.WithContext(ctx).Preload("Items").Where("user_id = ?", userID)
	if state != nil {
		if !models.ValidOrderStates[*state] {
			return nil, fmt.Errorf("%w: %q", ErrInvalidState, *state)
		}
		q = q.Where("state = ?", *state)
	}
	var orders []models.Order
	if err := q.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus saves the new state/payment flag, then drives gamification
// on transitions into or out of "completed" and into cancelado.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, userID, orderID string, upd StatusUpdate) (*StatusUpdateResult, error) {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	wasCompleted := order.IsCompleted()
	wasCancelled := order.State == models.OrderStateCancelado

	if upd.State != nil {
		if !models.ValidOrderStates[*upd.State] {
			return nil, fmt.Errorf("%w: %q", ErrInvalidState, *upd.State)
		}
		if wasCancelled && *upd.State != models.OrderStateCancelado {
			return nil, ErrInvalidTransition
		}
		order.State = *upd.State
	}
	if upd.PaidByClient != nil {
		order.PaidByClient = *upd.PaidByClient
	}
	if (order.State == models.OrderStateDelivered || order.State == models.OrderStateEntregado) && order.DeliveredAt == nil {
		now := s.now()
		order.DeliveredAt = &now
	}

	if err := s.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"state":          order.State,
			"paid_by_client": order.PaidByClient,
			"delivered_at":   order.DeliveredAt,
		}).Error; err != nil {
		return nil, fmt.Errorf("updating order %s: %w", orderID, err)
	}

	result := &StatusUpdateResult{Order: *order}
	nowCompleted := order.IsCompleted()

	var recalc *RecalcResult
	var gerr error
	switch {
	case !wasCancelled && order.State == models.OrderStateCancelado:
		recalc, gerr = s.Gamification.OnOrderCancelled(ctx, userID)
	case !wasCompleted && nowCompleted:
		recalc, gerr = s.Gamification.OnOrderCompleted(ctx, userID, order.ID, order.Total)
	case wasCompleted && !nowCompleted:
		recalc, gerr = s.Gamification.Recalculate(ctx, userID)
	default:
		return result, nil
	}
	if gerr != nil {
		log.Error().Err(gerr).Str("user_id", userID).Str("order_id", orderID).
			Msg("[ORDERS] ❌ gamification recalculation failed, order update kept")
		result.GamificationError = gerr.Error()
		return result, nil
	}
	result.Gamification = recalc
	return result, nil
}

// Consolidate groups every pendiente order of the reseller into a new consolidation.
func (s *OrderService) Consolidate(ctx context.Context, userID string) (*models.Consolidation, error) {
	var consolidation models.Consolidation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending []models.Order
		if err := tx.Where("user_id = ? AND state = ?", userID, models.OrderStatePendiente).
			Order("created_at ASC").
			Find(&pending).Error; err != nil {
			return err
		}
		if len(pending) == 0 {
			return ErrNoPendingOrders
		}

		wholesale, total := decimal.Zero, decimal.Zero
		ids := make([]string, 0, len(pending))
		for _, o := range pending {
			wholesale = wholesale.Add(decimal.NewFromFloat(o.WholesaleTotal))
			total = total.Add(decimal.NewFromFloat(o.Total))
			ids = append(ids, o.ID)
		}

		consolidation = models.Consolidation{
			UserID:         userID,
			OrderCount:     len(pending),
			WholesaleTotal: wholesale.Round(2).InexactFloat64(),
			Total:          total.Round(2).InexactFloat64(),
			SubmittedAt:    s.now(),
		}
		if err := tx.Create(&consolidation).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Order{}).
			Where("id IN ? AND state = ?", ids, models.OrderStatePendiente).
			Updates(map[string]interface{}{
				"state":            models.OrderStateConsolidado,
				"consolidation_id": consolidation.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(ids)) {
			return fmt.Errorf("consolidating orders: %d of %d changed concurrently", int64(len(ids))-res.RowsAffected, len(ids))
		}
		return tx.Preload("Items").Where("consolidation_id = ?", consolidation.ID).
			Order("created_at ASC").
			Find(&consolidation.Orders).Error
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID).
		Str("consolidation_id", consolidation.ID).
		Int("orders", consolidation.OrderCount).
		Msg("[ORDERS] 📦 orders consolidated")
	return &consolidation, nil
}
