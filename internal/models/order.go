package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OrderState is the coarse lifecycle state of a whole order.
type OrderState string

const (
	OrderStateDraft            OrderState = "draft"
	OrderStatePendingApproval  OrderState = "pendingApproval"
	OrderStatePicking          OrderState = "picking"
	OrderStateInProgress       OrderState = "inProgress"
	OrderStateCompleted        OrderState = "completed"
	OrderStateCanceled         OrderState = "canceled"
	OrderStateCanceledByBooker OrderState = "canceledByBooker"
)

// OrderType distinguishes group orders (participants pick their own dish)
// from normal orders (the booker picks for everyone).
type OrderType string

const (
	OrderTypeGroup  OrderType = "group"
	OrderTypeNormal OrderType = "normal"
)

// Transition names the delivery-workflow events of a sub-order.
type Transition string

const (
	TransitionInitiate       Transition = "INITIATE_TRANSACTION"
	TransitionPartnerConfirm Transition = "PARTNER_CONFIRM_SUB_ORDER"
	TransitionStartDelivery  Transition = "START_DELIVERY"
	TransitionComplete       Transition = "COMPLETE_DELIVERY"
	TransitionOperatorCancel Transition = "OPERATOR_CANCEL_PLAN"
)

// TransitionEntry is one element of a sub-order's append-only transition log.
type TransitionEntry struct {
	Transition Transition `json:"transition"`
	By         string     `json:"by"`
	CreatedAt  int64      `json:"created_at"`
}

// FoodItem is a snapshot of one dish on a sub-order's menu. Prices are VND,
// so whole integers.
type FoodItem struct {
	FoodID    string `json:"food_id"`
	FoodName  string `json:"food_name"`
	FoodPrice int64  `json:"food_price"`
}

// MemberOrder is one participant's selection within a sub-order.
type MemberOrder struct {
	FoodID      string `json:"food_id"`
	Status      string `json:"status"`
	Requirement string `json:"requirement"`
}

// Order is the booking aggregate spanning a date range of sub-orders.
type Order struct {
	BaseModel
	Code              string     `gorm:"uniqueIndex;size:20" json:"code"`
	BookerID          uuid.UUID  `gorm:"type:uuid;index" json:"booker_id"`
	Booker            *User      `json:"booker,omitempty"`
	CompanyName       string     `json:"company_name"`
	OrderState        OrderState `gorm:"index" json:"order_state"`
	OrderType         OrderType  `json:"order_type"`
	StaffName         string     `json:"staff_name"`
	DeliveryAddress   string     `json:"delivery_address"`
	DeliveryHour      string     `json:"delivery_hour"`
	StartDate         int64      `json:"start_date"`
	EndDate           int64      `json:"end_date"`
	DeadlineDate      *int64     `json:"deadline_date"`
	DeadlineHour      string     `json:"deadline_hour"`
	VATPercentage     float64    `json:"vat_percentage"`
	TransportFee      int64      `json:"transport_fee"`
	ClientServiceFee  int64      `json:"client_service_fee"`
	PITOFeePercentage float64    `json:"pito_fee_percentage"`
	PromotionAmount   int64      `json:"promotion_amount"`
	QuotationID       *uuid.UUID `gorm:"type:uuid" json:"quotation_id"`

	// ServiceFees maps partner (restaurant) ID to its service fee percentage.
	ServiceFees datatypes.JSONType[map[string]float64] `json:"service_fees"`

	SubOrders      []SubOrder      `gorm:"foreignKey:OrderID" json:"sub_orders,omitempty"`
	PaymentRecords []PaymentRecord `gorm:"foreignKey:OrderID" json:"payment_records,omitempty"`
}

// SubOrder is the per-date slice of an order, tied to one restaurant and a
// set of participant selections. Date is the delivery day normalized to
// start-of-day millis in the business timezone.
type SubOrder struct {
	BaseModel
	OrderID        uuid.UUID `gorm:"type:uuid;index:idx_suborder_order_date,unique" json:"order_id"`
	Date           int64     `gorm:"index:idx_suborder_order_date,unique" json:"date"`
	RestaurantID   string    `gorm:"index" json:"restaurant_id"`
	RestaurantName string    `json:"restaurant_name"`

	FoodList     datatypes.JSONType[[]FoodItem]             `json:"food_list"`
	MemberOrders datatypes.JSONType[map[string]MemberOrder] `json:"member_orders"`
	Transitions  datatypes.JSONType[[]TransitionEntry]      `json:"transitions"`

	LastTransition          Transition `gorm:"index" json:"last_transition"`
	LastTransitionedAt      int64      `json:"last_transitioned_at"`
	IsAdminPaymentConfirmed bool       `json:"is_admin_payment_confirmed"`

	// Version guards concurrent transition appends (optimistic lock).
	Version int64 `json:"version"`
}
