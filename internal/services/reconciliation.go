package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/tiffin/internal/models"
)

// PaymentStatus is the settlement snapshot for one scope.
type PaymentStatus struct {
	IsPaid       bool  `json:"is_paid"`
	PaidAmount   int64 `json:"paid_amount"`
	RemainAmount int64 `json:"remain_amount"`
}

// ReconciliationService is the read-only composition the admin screens use:
// it joins the quotation calculator with the payment ledger to answer
// settlement questions. It never writes.
type ReconciliationService struct {
	db     *gorm.DB
	ledger *LedgerService
}

// NewReconciliationService constructs ReconciliationService.
func NewReconciliationService(db *gorm.DB, ledger *LedgerService) *ReconciliationService {
	return &ReconciliationService{db: db, ledger: ledger}
}

func (s *ReconciliationService) loadOrder(ctx context.Context, orderID string) (*models.Order, []models.SubOrder, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, ErrOrderNotFound
		}
		return nil, nil, err
	}

	var subOrders []models.SubOrder
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("date asc").
		Find(&subOrders).Error; err != nil {
		return nil, nil, err
	}
	return &order, subOrders, nil
}

func (s *ReconciliationService) status(ctx context.Context, scope PaymentScope, total int64) (*PaymentStatus, error) {
	records, err := s.ledger.ListRecords(ctx, scope)
	if err != nil {
		return nil, err
	}
	paid := Paid(records, scope)
	return &PaymentStatus{
		IsPaid:       IsFullySettled(total, paid),
		PaidAmount:   paid,
		RemainAmount: Remaining(total, paid),
	}, nil
}

// OrderPaymentStatus answers settlement for the whole-order client scope.
func (s *ReconciliationService) OrderPaymentStatus(ctx context.Context, orderID string) (*PaymentStatus, error) {
	order, subOrders, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	breakdown, _ := CalculateClientQuotation(subOrders, order)
	scope := PaymentScope{Type: models.PaymentTypeClient, OrderID: orderID}
	return s.status(ctx, scope, breakdown.TotalWithVAT)
}

// SubOrderPaymentStatus answers settlement for one partner's slice of one
// delivery date.
func (s *ReconciliationService) SubOrderPaymentStatus(ctx context.Context, orderID string, date int64) (*PaymentStatus, error) {
	order, subOrders, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	sub := findSubOrder(subOrders, date)
	if sub == nil {
		return nil, ErrSubOrderNotFound
	}

	serviceFees := order.ServiceFees.Data()
	breakdown, _ := CalculatePartnerQuotation(subOrders, serviceFees[sub.RestaurantID], order.VATPercentage, &date)
	scope := PaymentScope{
		Type:         models.PaymentTypePartner,
		OrderID:      orderID,
		SubOrderDate: &date,
		PartnerID:    &sub.RestaurantID,
	}
	return s.status(ctx, scope, breakdown.TotalWithVAT)
}

// CanConfirmPartnerPayment is true when the partner scope is fully settled
// and the sub-order has not been confirmed yet.
func (s *ReconciliationService) CanConfirmPartnerPayment(ctx context.Context, orderID string, date int64) (bool, error) {
	_, subOrders, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return false, err
	}
	sub := findSubOrder(subOrders, date)
	if sub == nil {
		return false, ErrSubOrderNotFound
	}
	if sub.IsAdminPaymentConfirmed {
		return false, nil
	}

	status, err := s.SubOrderPaymentStatus(ctx, orderID, date)
	if err != nil {
		return false, err
	}
	return status.IsPaid, nil
}

func findSubOrder(subOrders []models.SubOrder, date int64) *models.SubOrder {
	for i := range subOrders {
		if subOrders[i].Date == date {
			return &subOrders[i]
		}
	}
	return nil
}
