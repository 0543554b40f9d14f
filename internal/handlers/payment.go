package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tiffin/internal/models"
	"github.com/example/tiffin/internal/services"
)

// PaymentHandler manages the payment ledger and reconciliation endpoints.
type PaymentHandler struct {
	db             *gorm.DB
	ledger         *services.LedgerService
	reconciliation *services.ReconciliationService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(db *gorm.DB, ledger *services.LedgerService, reconciliation *services.ReconciliationService) *PaymentHandler {
	return &PaymentHandler{db: db, ledger: ledger, reconciliation: reconciliation}
}

func (h *PaymentHandler) loadOrder(c *fiber.Ctx) (*models.Order, []models.SubOrder, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return nil, nil, err
	}

	var subOrders []models.SubOrder
	if err := h.db.Where("order_id = ?", order.ID).Order("date asc").Find(&subOrders).Error; err != nil {
		return nil, nil, err
	}
	return &order, subOrders, nil
}

type addPaymentRequest struct {
	PaymentType  models.PaymentType `json:"payment_type" validate:"required,oneof=client partner"`
	SubOrderDate *int64             `json:"sub_order_date"`
	Amount       int64              `json:"amount"`
	Percentage   float64            `json:"percentage"`
	PaymentNote  string             `json:"payment_note"`
}

// scopeAndTotal resolves the ledger scope and the quoted settlement total
// for one add/list request.
func (h *PaymentHandler) scopeAndTotal(order *models.Order, subOrders []models.SubOrder, paymentType models.PaymentType, date *int64) (services.PaymentScope, int64, error) {
	if paymentType == models.PaymentTypeClient {
		breakdown, _ := services.CalculateClientQuotation(subOrders, order)
		scope := services.PaymentScope{Type: models.PaymentTypeClient, OrderID: order.ID.String()}
		return scope, breakdown.TotalWithVAT, nil
	}

	if date == nil {
		return services.PaymentScope{}, 0, fiber.NewError(fiber.StatusBadRequest, "sub_order_date is required for partner payments")
	}
	sub := findSubOrderByDate(subOrders, *date)
	if sub == nil {
		return services.PaymentScope{}, 0, fiber.NewError(fiber.StatusNotFound, "sub-order not found")
	}

	serviceFees := order.ServiceFees.Data()
	breakdown, _ := services.CalculatePartnerQuotation(subOrders, serviceFees[sub.RestaurantID], order.VATPercentage, date)
	scope := services.PaymentScope{
		Type:         models.PaymentTypePartner,
		OrderID:      order.ID.String(),
		SubOrderDate: date,
		PartnerID:    &sub.RestaurantID,
	}
	return scope, breakdown.TotalWithVAT, nil
}

// AddPaymentRecord appends a ledger entry. The amount may be given either
// directly or as a percentage of the quoted total.
func (h *PaymentHandler) AddPaymentRecord(c *fiber.Ctx) error {
	order, subOrders, err := h.loadOrder(c)
	if err != nil {
		return err
	}

	var req addPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	scope, total, err := h.scopeAndTotal(order, subOrders, req.PaymentType, req.SubOrderDate)
	if err != nil {
		return err
	}

	amount := req.Amount
	if amount == 0 && req.Percentage > 0 {
		records, err := h.ledger.ListRecords(c.Context(), scope)
		if err != nil {
			return err
		}
		amount = services.PercentageAmount(total, services.Paid(records, scope), req.Percentage)
	}

	record, err := h.ledger.AddPaymentRecord(c.Context(), scope, total, amount, req.PaymentNote, order.Code)
	if err != nil {
		return mapDomainError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": record})
}

// ListPaymentRecords returns the ledger entries for one scope.
func (h *PaymentHandler) ListPaymentRecords(c *fiber.Ctx) error {
	order, subOrders, err := h.loadOrder(c)
	if err != nil {
		return err
	}

	paymentType := models.PaymentType(c.Query("payment_type", string(models.PaymentTypeClient)))
	var date *int64
	if raw := c.QueryInt("sub_order_date", 0); raw != 0 {
		millis := int64(raw)
		date = &millis
	}

	scope, total, err := h.scopeAndTotal(order, subOrders, paymentType, date)
	if err != nil {
		return err
	}

	records, err := h.ledger.ListRecords(c.Context(), scope)
	if err != nil {
		return err
	}
	paid := services.Paid(records, scope)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    records,
		"summary": fiber.Map{
			"total_amount":  total,
			"paid_amount":   paid,
			"remain_amount": services.Remaining(total, paid),
			"is_paid":       services.IsFullySettled(total, paid),
		},
	})
}

// DeletePaymentRecord removes one ledger entry.
func (h *PaymentHandler) DeletePaymentRecord(c *fiber.Ctx) error {
	if err := h.ledger.DeletePaymentRecord(c.Context(), c.Params("recordId")); err != nil {
		return mapDomainError(err)
	}
	return c.JSON(fiber.Map{"success": true})
}

type confirmPartnerRequest struct {
	Date int64 `json:"date" validate:"required"`
}

// ConfirmPartnerPayment marks one sub-order's partner payout as settled and
// confirmed. It fails unless the partner ledger covers the quoted total.
func (h *PaymentHandler) ConfirmPartnerPayment(c *fiber.Ctx) error {
	order, subOrders, err := h.loadOrder(c)
	if err != nil {
		return err
	}

	var req confirmPartnerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	scope, total, err := h.scopeAndTotal(order, subOrders, models.PaymentTypePartner, &req.Date)
	if err != nil {
		return err
	}

	if err := h.ledger.ConfirmPartnerPayment(c.Context(), scope, total); err != nil {
		return mapDomainError(err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// OrderPaymentStatus reports client-side settlement for the whole order.
func (h *PaymentHandler) OrderPaymentStatus(c *fiber.Ctx) error {
	if _, err := uuid.Parse(c.Params("id")); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	status, err := h.reconciliation.OrderPaymentStatus(c.Context(), c.Params("id"))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(fiber.Map{"success": true, "data": status})
}

// SubOrderPaymentStatus reports partner-side settlement for one delivery
// date, plus whether the confirm action is currently allowed.
func (h *PaymentHandler) SubOrderPaymentStatus(c *fiber.Ctx) error {
	if _, err := uuid.Parse(c.Params("id")); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	date := int64(c.QueryInt("date", 0))
	if date == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "date query parameter is required")
	}

	status, err := h.reconciliation.SubOrderPaymentStatus(c.Context(), c.Params("id"), date)
	if err != nil {
		return mapDomainError(err)
	}

	canConfirm, err := h.reconciliation.CanConfirmPartnerPayment(c.Context(), c.Params("id"), date)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    status,
		"guards":  fiber.Map{"can_confirm_partner_payment": canConfirm},
	})
}

func findSubOrderByDate(subOrders []models.SubOrder, date int64) *models.SubOrder {
	for i := range subOrders {
		if subOrders[i].Date == date {
			return &subOrders[i]
		}
	}
	return nil
}
