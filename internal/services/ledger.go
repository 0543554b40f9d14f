package services

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/tiffin/internal/models"
	"github.com/example/tiffin/internal/utils"
)

// forUpdate adds a row lock where the dialect supports it. SQLite has no
// SELECT ... FOR UPDATE; its writes serialize on the database lock instead.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// PaymentScope identifies the slice of the books a payment applies to:
// order-wide for client records, (order, date, partner) for partner records.
type PaymentScope struct {
	Type         models.PaymentType
	OrderID      string
	SubOrderDate *int64
	PartnerID    *string
}

// Matches reports whether a record belongs to the scope.
func (s PaymentScope) Matches(r *models.PaymentRecord) bool {
	if r.PaymentType != s.Type || r.OrderID.String() != s.OrderID {
		return false
	}
	if s.SubOrderDate != nil && (r.SubOrderDate == nil || *r.SubOrderDate != *s.SubOrderDate) {
		return false
	}
	if s.PartnerID != nil && (r.PartnerID == nil || *r.PartnerID != *s.PartnerID) {
		return false
	}
	return true
}

// Paid sums the non-deleted records matching the scope. Always derived
// fresh from the record set, never cached incrementally.
func Paid(records []models.PaymentRecord, scope PaymentScope) int64 {
	var paid int64
	for i := range records {
		if scope.Matches(&records[i]) {
			paid += records[i].Amount
		}
	}
	return paid
}

// Remaining is the outstanding balance, floored at zero.
func Remaining(total, paid int64) int64 {
	if paid >= total {
		return 0
	}
	return total - paid
}

// IsFullySettled holds on exact equality only. Overpayment is rejected at
// write time, so equality is the one terminal condition.
func IsFullySettled(total, paid int64) bool {
	return paid == total
}

// ValidateAddition checks the no-overpayment invariant for a prospective
// record against the freshly computed paid sum.
func ValidateAddition(total, paid, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if remaining := Remaining(total, paid); amount > remaining {
		return &OverpaymentError{Requested: amount, Remaining: remaining}
	}
	return nil
}

// PercentageAmount computes floor(total x pct / 100) and clamps to the
// remaining balance when the result would overshoot it.
func PercentageAmount(total, paid int64, pct float64) int64 {
	amount := decimal.NewFromInt(total).
		Mul(decimal.NewFromFloat(pct)).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
	if remaining := Remaining(total, paid); amount > remaining {
		return remaining
	}
	return amount
}

// LedgerService owns payment records and the settlement invariant: for
// every scope, paid never exceeds total.
type LedgerService struct {
	db *gorm.DB
}

// NewLedgerService constructs LedgerService.
func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// scopeQuery narrows a query to the records of one scope.
func scopeQuery(tx *gorm.DB, scope PaymentScope) *gorm.DB {
	q := tx.Where("payment_type = ? AND order_id = ?", scope.Type, scope.OrderID)
	if scope.SubOrderDate != nil {
		q = q.Where("sub_order_date = ?", *scope.SubOrderDate)
	}
	if scope.PartnerID != nil {
		q = q.Where("partner_id = ?", *scope.PartnerID)
	}
	return q
}

// ListRecords returns the scope's records, oldest first.
func (s *LedgerService) ListRecords(ctx context.Context, scope PaymentScope) ([]models.PaymentRecord, error) {
	var records []models.PaymentRecord
	err := scopeQuery(s.db.WithContext(ctx).Model(&models.PaymentRecord{}), scope).
		Order("created_at asc").
		Find(&records).Error
	return records, err
}

// AddPaymentRecord appends a ledger entry after re-validating the remaining
// balance under a row lock. The UI pre-clamps the input, but this check is
// the source of truth: a stale client read cannot overdraw the scope.
func (s *LedgerService) AddPaymentRecord(ctx context.Context, scope PaymentScope, total, amount int64, note, orderCode string) (*models.PaymentRecord, error) {
	orderUUID, err := uuid.Parse(scope.OrderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	record := models.PaymentRecord{
		PaymentType:  scope.Type,
		OrderID:      orderUUID,
		SubOrderDate: scope.SubOrderDate,
		PartnerID:    scope.PartnerID,
		Amount:       amount,
		PaymentNote:  note,
		SKU:          utils.GenerateSKU(string(scope.Type), orderCode),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.PaymentRecord
		if err := scopeQuery(forUpdate(tx).Model(&models.PaymentRecord{}), scope).
			Find(&existing).Error; err != nil {
			return err
		}

		if err := ValidateAddition(total, Paid(existing, scope), amount); err != nil {
			return err
		}

		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Ledger] recorded %s payment %d for order %s (sku %s)",
		scope.Type, amount, orderCode, record.SKU)
	return &record, nil
}

// DeletePaymentRecord hard-removes a record. Paid and remaining are always
// recomputed from the surviving record set, so no cache needs invalidating.
func (s *LedgerService) DeletePaymentRecord(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.PaymentRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ConfirmPartnerPayment marks the sub-order's partner scope as confirmed by
// an admin. Allowed only once the scope is fully settled; confirming an
// already-confirmed sub-order is a no-op, not an error.
func (s *LedgerService) ConfirmPartnerPayment(ctx context.Context, scope PaymentScope, total int64) error {
	if scope.SubOrderDate == nil {
		return ErrSubOrderNotFound
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub models.SubOrder
		if err := forUpdate(tx).
			First(&sub, "order_id = ? AND date = ?", scope.OrderID, *scope.SubOrderDate).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrSubOrderNotFound
			}
			return err
		}

		if sub.IsAdminPaymentConfirmed {
			return nil
		}

		var records []models.PaymentRecord
		if err := scopeQuery(tx.Model(&models.PaymentRecord{}), scope).Find(&records).Error; err != nil {
			return err
		}
		if !IsFullySettled(total, Paid(records, scope)) {
			return ErrNotSettled
		}

		return tx.Model(&sub).Update("is_admin_payment_confirmed", true).Error
	})
}
