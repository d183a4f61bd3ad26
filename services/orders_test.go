package services

import (
	"context"
	"testing"
	"time"

	"nadin-revendedoras/models"
	"nadin-revendedoras/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrderService(t *testing.T) *OrderService {
	t.Helper()
	db := testutil.NewDB(t)
	cache := NewCatalogCache(db)
	gamification := NewGamificationService(db)
	require.NoError(t, gamification.SeedBadges(context.Background()))

	row := cachedRow(t, models.NormalizedProduct{
		ID: "101", Name: "Bombacha Less", Brand: "Nadin", Category: "MUJER > ROPA INTERIOR > BOMBACHAS",
		Variants: []models.Variant{
			{ID: "1", SKU: "BL-M", Price: 1000, Stock: 5, Talle: "M", Color: "Negro"},
			{ID: "2", SKU: "BL-L", Price: 1000, Stock: 0, Talle: "L", Color: "Negro"},
		},
	}, models.SexMujer, 0, time.Now())
	row2 := cachedRow(t, models.NormalizedProduct{
		ID: "102", Name: "Corpiño", Brand: "Lody",
		Variants: []models.Variant{{ID: "3", SKU: "CO-90", Price: 2333.33, Stock: 2, Talle: "90", Color: "Blanco"}},
	}, models.SexMujer, 0, time.Now())
	require.NoError(t, cache.ReplaceAll(context.Background(), []models.CachedProduct{row, row2}))

	return NewOrderService(db, cache, gamification)
}

func validOrderRequest() CreateOrderRequest {
	return CreateOrderRequest{
		ClientName:  "Marta",
		ClientPhone: "+54 9 11 5555-5555",
		Items: []OrderItemRequest{
			{ProductID: "101", VariantID: "1", Quantity: 2},
			{ProductID: "102", VariantID: "3", Quantity: 1},
		},
	}
}

func TestCreateOrder_PricesWithDefaultMarkup(t *testing.T) {
	svc := newTestOrderService(t)

	order, err := svc.CreateOrder(context.Background(), "u1", validOrderRequest())
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatePendiente, order.State)
	assert.Equal(t, models.DefaultMarkupPercent, order.MarkupPercent)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 1600.0, order.Items[0].UnitPrice)
	assert.Equal(t, 3733.33, order.Items[1].UnitPrice)
	assert.Equal(t, "Nadin", order.Items[0].Brand)
	assert.Equal(t, 4333.33, order.WholesaleTotal)
	assert.Equal(t, 6933.33, order.Total)

	stored, err := svc.GetOrder(context.Background(), "u1", order.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
}

func TestCreateOrder_UsesResellerMarkup(t *testing.T) {
	svc := newTestOrderService(t)
	_, err := svc.UpdateMarkup(context.Background(), "u1", 25)
	require.NoError(t, err)

	order, err := svc.CreateOrder(context.Background(), "u1", CreateOrderRequest{
		ClientName: "Marta",
		Items:      []OrderItemRequest{{ProductID: "101", VariantID: "1", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1250.0, order.Total)
}

func TestCreateOrder_Validation(t *testing.T) {
	svc := newTestOrderService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateOrderRequest
		want error
	}{
		{"missing client", CreateOrderRequest{Items: validOrderRequest().Items}, ErrMissingClientName},
		{"no items", CreateOrderRequest{ClientName: "Marta"}, ErrEmptyOrder},
		{"unknown product", CreateOrderRequest{ClientName: "Marta", Items: []OrderItemRequest{{ProductID: "999", VariantID: "1", Quantity: 1}}}, ErrProductNotFound},
		{"unknown variant", CreateOrderRequest{ClientName: "Marta", Items: []OrderItemRequest{{ProductID: "101", VariantID: "77", Quantity: 1}}}, ErrVariantNotFound},
		{"out of stock", CreateOrderRequest{ClientName: "Marta", Items: []OrderItemRequest{{ProductID: "101", VariantID: "2", Quantity: 1}}}, ErrOutOfStock},
		{"over stock", CreateOrderRequest{ClientName: "Marta", Items: []OrderItemRequest{{ProductID: "101", VariantID: "1", Quantity: 6}}}, ErrOutOfStock},
		{"zero quantity", CreateOrderRequest{ClientName: "Marta", Items: []OrderItemRequest{{ProductID: "101", VariantID: "1", Quantity: 0}}}, ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, "u1", tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdateOrderStatus_CompletionDrivesGamification(t *testing.T) {
	svc := newTestOrderService(t)
	ctx := context.Background()
	order, err := svc.CreateOrder(ctx, "u1", validOrderRequest())
	require.NoError(t, err)

	delivered := models.OrderStateDelivered
	res, err := svc.UpdateOrderStatus(ctx, "u1", order.ID, StatusUpdate{State: &delivered})
	require.NoError(t, err)
	assert.Nil(t, res.Gamification, "unpaid delivery is not a sale yet")
	assert.NotNil(t, res.Order.DeliveredAt)

	paid := true
	res, err = svc.UpdateOrderStatus(ctx, "u1", order.ID, StatusUpdate{PaidByClient: &paid})
	require.NoError(t, err)
	require.NotNil(t, res.Gamification)
	assert.Empty(t, res.GamificationError)
	assert.Equal(t, int64(1), res.Gamification.UserLevel.TotalSales)
	// floor(6933.33/1000)*10 + 50 + 25
	assert.Equal(t, int64(135), res.Gamification.PointsAwarded)

	res, err = svc.UpdateOrderStatus(ctx, "u1", order.ID, StatusUpdate{PaidByClient: &paid})
	require.NoError(t, err)
	assert.Nil(t, res.Gamification, "no transition, no recalculation")
}

func TestUpdateOrderStatus_CancelRecalculates(t *testing.T) {
	svc := newTestOrderService(t)
	ctx := context.Background()
	order, err := svc.CreateOrder(ctx, "u1", CreateOrderRequest{
		ClientName: "Marta", PaidByClient: true,
		Items: []OrderItemRequest{{ProductID: "101", VariantID: "1", Quantity: 1}},
	})
	require.NoError(t, err)

	delivered := models.OrderStateDelivered
	_, err = svc.UpdateOrderStatus(ctx, "u1", order.ID, StatusUpdate{State: &delivered})
	require.NoError(t, err)

	cancelled := models.OrderStateCancelado
	res, err := svc.UpdateOrderStatus(ctx, "u1", order.ID, StatusUpdate{State: &cancelled})
	require.NoError(t, err)
	require.NotNil(t, res.Gamification)
	assert.Equal(t, int64(0), res.Gamification.UserLevel.TotalSales)

	_, err = svc.UpdateOrderStatus(ctx, "u1", order.ID, StatusUpdate{State: &delivered})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateOrderStatus_GamificationFailureKeepsOrderUpdate(t *testing.T) {
	svc := newTestOrderService(t)
	ctx := context.Background()
	order, err := svc.CreateOrder(ctx, "u1", CreateOrderRequest{
		ClientName: "Marta", PaidByClient: true,
		Items: []OrderItemRequest{{ProductID: "101", VariantID: "1", Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DB.Migrator().DropTable(&models.UserLevel{}))

	delivered := models.OrderStateDelivered
	res, err := svc.UpdateOrderStatus(ctx, "u1", order.ID, StatusUpdate{State: &delivered})
	require.NoError(t, err)
	assert.NotEmpty(t, res.GamificationError)
	assert.Nil(t, res.Gamification)

	stored, err := svc.GetOrder(ctx, "u1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStateDelivered, stored.State)
}

func TestUpdateOrderStatus_Errors(t *testing.T) {
	svc := newTestOrderService(t)
	ctx := context.Background()
	order, err := svc.CreateOrder(ctx, "u1", validOrderRequest())
	require.NoError(t, err)

	bogus := models.OrderState("perdido")
	_, err = svc.UpdateOrderStatus(ctx, "u1", order.ID, StatusUpdate{State: &bogus})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.UpdateOrderStatus(ctx, "someone-else", order.ID, StatusUpdate{State: &bogus})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrders(t *testing.T) {
	svc := newTestOrderService(t)
	ctx := context.Background()
	first, err := svc.CreateOrder(ctx, "u1", validOrderRequest())
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, "u1", validOrderRequest())
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, "u2", validOrderRequest())
	require.NoError(t, err)

	sent := models.OrderStateEnviado
	_, err = svc.UpdateOrderStatus(ctx, "u1", first.ID, StatusUpdate{State: &sent})
	require.NoError(t, err)

	all, err := svc.ListOrders(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlySent, err := svc.ListOrders(ctx, "u1", &sent)
	require.NoError(t, err)
	require.Len(t, onlySent, 1)
	assert.Equal(t, first.ID, onlySent[0].ID)
}

func TestConsolidate(t *testing.T) {
	svc := newTestOrderService(t)
	ctx := context.Background()

	_, err := svc.Consolidate(ctx, "u1")
	assert.ErrorIs(t, err, ErrNoPendingOrders)

	a, err := svc.CreateOrder(ctx, "u1", validOrderRequest())
	require.NoError(t, err)
	b, err := svc.CreateOrder(ctx, "u1", CreateOrderRequest{
		ClientName: "Lucía",
		Items:      []OrderItemRequest{{ProductID: "101", VariantID: "1", Quantity: 1}},
	})
	require.NoError(t, err)
	c, err := svc.CreateOrder(ctx, "u1", validOrderRequest())
	require.NoError(t, err)
	cancelled := models.OrderStateCancelado
	_, err = svc.UpdateOrderStatus(ctx, "u1", c.ID, StatusUpdate{State: &cancelled})
	require.NoError(t, err)

	consolidation, err := svc.Consolidate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, consolidation.OrderCount)
	assert.Equal(t, 8533.33, consolidation.Total)
	assert.Len(t, consolidation.Orders, 2)

	for _, id := range []string{a.ID, b.ID} {
		o, err := svc.GetOrder(ctx, "u1", id)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStateConsolidado, o.State)
		require.NotNil(t, o.ConsolidationID)
		assert.Equal(t, consolidation.ID, *o.ConsolidationID)
	}

	_, err = svc.Consolidate(ctx, "u1")
	assert.ErrorIs(t, err, ErrNoPendingOrders)
}

func TestUpdateOrderStatus_PaymentToggleCreditsOnce(t *testing.T) {
	svc := newTestOrderService(t)
	ctx := context.Background()
	order, err := svc.CreateOrder(ctx, "u1", validOrderRequest())
	require.NoError(t, err)

	delivered := models.OrderStateDelivered
	paid, unpaid := true, false
	_, err = svc.UpdateOrderStatus(ctx, "u1", order.ID, StatusUpdate{State: &delivered, PaidByClient: &paid})
	require.NoError(t, err)
	require.Equal(t, int64(135), sumPoints(t, svc.DB, "u1"))

	for i := 0; i < 3; i++ {
		res, err := svc.UpdateOrderStatus(ctx, "u1", order.ID, StatusUpdate{PaidByClient: &unpaid})
		require.NoError(t, err)
		require.NotNil(t, res.Gamification)
		assert.Zero(t, res.Gamification.UserLevel.TotalSales)

		res, err = svc.UpdateOrderStatus(ctx, "u1", order.ID, StatusUpdate{PaidByClient: &paid})
		require.NoError(t, err)
		require.NotNil(t, res.Gamification)
		assert.Equal(t, int64(1), res.Gamification.UserLevel.TotalSales)
		assert.Zero(t, res.Gamification.PointsAwarded)
	}

	assert.Equal(t, int64(135), sumPoints(t, svc.DB, "u1"))
	assert.Equal(t, int64(1), countReason(t, svc.DB, "u1", models.PointReasonSale))
}

func TestUpdateOrderStatus_CancelThenCompleteAnother(t *testing.T) {
	svc := newTestOrderService(t)
	ctx := context.Background()
	delivered, cancelled := models.OrderStateDelivered, models.OrderStateCancelado

	req := validOrderRequest()
	req.PaidByClient = true
	first, err := svc.CreateOrder(ctx, "u1", req)
	require.NoError(t, err)
	_, err = svc.UpdateOrderStatus(ctx, "u1", first.ID, StatusUpdate{State: &delivered})
	require.NoError(t, err)
	_, err = svc.UpdateOrderStatus(ctx, "u1", first.ID, StatusUpdate{State: &cancelled})
	require.NoError(t, err)

	second, err := svc.CreateOrder(ctx, "u1", req)
	require.NoError(t, err)
	res, err := svc.UpdateOrderStatus(ctx, "u1", second.ID, StatusUpdate{State: &delivered})
	require.NoError(t, err)
	require.NotNil(t, res.Gamification)

	assert.Equal(t, int64(1), res.Gamification.UserLevel.TotalSales)
	// floor(6933.33/1000)*10, no first-sale bonus the second time
	assert.Equal(t, int64(60), res.Gamification.PointsAwarded)
	assert.Equal(t, int64(2), countReason(t, svc.DB, "u1", models.PointReasonSale))
	assert.Equal(t, int64(195), sumPoints(t, svc.DB, "u1"))
}
