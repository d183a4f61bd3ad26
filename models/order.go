package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderState is the lifecycle state of a client order
type OrderState string

const (
	OrderStatePendiente   OrderState = "pendiente"
	OrderStateConsolidado OrderState = "consolidado"
	OrderStateEnviado     OrderState = "enviado"
	OrderStateDelivered   OrderState = "delivered"
	OrderStateEntregado   OrderState = "entregado" // legacy spelling of delivered
	OrderStateCancelado   OrderState = "cancelado"
)

// ValidOrderStates lists every state accepted by status updates.
var ValidOrderStates = map[OrderState]bool{
	OrderStatePendiente:   true,
	OrderStateConsolidado: true,
	OrderStateEnviado:     true,
	OrderStateDelivered:   true,
	OrderStateEntregado:   true,
	OrderStateCancelado:   true,
}

// Order is a reseller's client order. Total is the retail amount (wholesale + markup).
type Order struct {
	ID              string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID          string     `gorm:"index;not null" json:"user_id"`
	ClientName      string     `gorm:"not null" json:"client_name"`
	ClientPhone     string     `json:"client_phone,omitempty"`
	Notes           string     `gorm:"type:text" json:"notes,omitempty"`
	State           OrderState `gorm:"type:varchar(16);not null;default:'pendiente';index" json:"state"`
	PaidByClient    bool       `gorm:"not null;default:false" json:"paid_by_client"`
	MarkupPercent   float64    `json:"markup_percent"`
	WholesaleTotal  float64    `json:"wholesale_total"`
	Total           float64    `json:"total"`
	ConsolidationID *string    `gorm:"type:uuid;index" json:"consolidation_id,omitempty"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`

	Timestamps
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// IsCompleted reports whether the order counts as a sale:
// delivered (or legacy entregado), paid by the client and not cancelled.
func (o *Order) IsCompleted() bool {
	if o.State == OrderStateCancelado || !o.PaidByClient {
		return false
	}
	return o.State == OrderStateDelivered || o.State == OrderStateEntregado
}

// CompletedOrders scopes a query to orders that count as sales.
func CompletedOrders(db *gorm.DB) *gorm.DB {
	return db.Where("orders.state IN ? AND orders.paid_by_client = ? AND orders.state <> ?",
		[]OrderState{OrderStateDelivered, OrderStateEntregado}, true, OrderStateCancelado)
}

// OrderItem is one variant line of an order, priced at creation time.
type OrderItem struct {
	ID             string  `gorm:"primaryKey;type:uuid" json:"id"`
	OrderID        string  `gorm:"type:uuid;index;not null" json:"order_id"`
	ProductID      string  `gorm:"type:varchar(64);index;not null" json:"product_id"`
	VariantID      string  `gorm:"type:varchar(64);not null" json:"variant_id"`
	Name           string  `json:"name"`
	Brand          string  `gorm:"type:varchar(128);index" json:"brand"`
	SKU            string  `json:"sku"`
	Talle          string  `json:"talle"`
	Color          string  `json:"color"`
	Quantity       int64   `gorm:"not null" json:"quantity"`
	WholesalePrice float64 `json:"wholesale_price"`
	UnitPrice      float64 `json:"unit_price"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
