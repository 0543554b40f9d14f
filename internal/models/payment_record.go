package models

import (
	"github.com/google/uuid"
)

// PaymentType tells which side of the books a record belongs to: money the
// client pays us, or money we pay out to a partner restaurant.
type PaymentType string

const (
	PaymentTypeClient  PaymentType = "client"
	PaymentTypePartner PaymentType = "partner"
)

// PaymentRecord is an atomic, append-only ledger entry. Records are never
// edited in place; correcting a mistake means deleting the record and adding
// a new one.
type PaymentRecord struct {
	BaseModel
	PaymentType  PaymentType `gorm:"index" json:"payment_type"`
	OrderID      uuid.UUID   `gorm:"type:uuid;index" json:"order_id"`
	SubOrderDate *int64      `gorm:"index" json:"sub_order_date"`
	PartnerID    *string     `gorm:"index" json:"partner_id"`
	Amount       int64       `json:"amount"`
	PaymentNote  string      `json:"payment_note"`
	SKU          string      `json:"sku"`
}
