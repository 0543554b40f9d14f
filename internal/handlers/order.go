package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/example/tiffin/internal/config"
	"github.com/example/tiffin/internal/middleware"
	"github.com/example/tiffin/internal/models"
	"github.com/example/tiffin/internal/services"
	"github.com/example/tiffin/internal/utils"
)

// OrderHandler manages the booker-facing order endpoints.
type OrderHandler struct {
	db        *gorm.DB
	cfg       *config.Config
	plans     *services.PlanService
	lifecycle *services.LifecycleService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, cfg *config.Config, plans *services.PlanService, lifecycle *services.LifecycleService) *OrderHandler {
	return &OrderHandler{db: db, cfg: cfg, plans: plans, lifecycle: lifecycle}
}

type createOrderRequest struct {
	OrderType         models.OrderType                    `json:"order_type" validate:"required,oneof=group normal"`
	DeliveryAddress   string                              `json:"delivery_address" validate:"required"`
	DeliveryHour      string                              `json:"delivery_hour" validate:"required"`
	StartDate         int64                               `json:"start_date" validate:"required"`
	EndDate           int64                               `json:"end_date" validate:"required"`
	DeadlineDate      *int64                              `json:"deadline_date"`
	DeadlineHour      string                              `json:"deadline_hour"`
	VATPercentage     float64                             `json:"vat_percentage"`
	TransportFee      int64                               `json:"transport_fee"`
	ClientServiceFee  int64                               `json:"client_service_fee"`
	PITOFeePercentage float64                             `json:"pito_fee_percentage"`
	ServiceFees       map[string]float64                  `json:"service_fees"`
	Details           map[string]*services.SubOrderDetail `json:"details"`
}

// parseDetailDates converts the JSON detail map, keyed by epoch-millis
// strings, into the plan service's keyed form.
func parseDetailDates(raw map[string]*services.SubOrderDetail) (map[int64]*services.SubOrderDetail, error) {
	details := make(map[int64]*services.SubOrderDetail, len(raw))
	for key, detail := range raw {
		millis, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid date key %q", key)
		}
		details[millis] = detail
	}
	return details, nil
}

// CreateOrder registers a booker submission: the order shell plus its
// per-date sub-orders.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	details, err := parseDetailDates(req.Details)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var booker models.User
	if err := h.db.First(&booker, "id = ?", userID).Error; err != nil {
		return err
	}

	if req.VATPercentage == 0 {
		req.VATPercentage = h.cfg.DefaultVAT
	}

	order := models.Order{
		BookerID:          userID,
		CompanyName:       booker.CompanyName,
		OrderState:        models.OrderStateDraft,
		OrderType:         req.OrderType,
		DeliveryAddress:   req.DeliveryAddress,
		DeliveryHour:      req.DeliveryHour,
		StartDate:         utils.DayStartMillis(req.StartDate),
		EndDate:           utils.DayStartMillis(req.EndDate),
		DeadlineHour:      req.DeadlineHour,
		VATPercentage:     req.VATPercentage,
		TransportFee:      req.TransportFee,
		ClientServiceFee:  req.ClientServiceFee,
		PITOFeePercentage: req.PITOFeePercentage,
		ServiceFees:       datatypes.NewJSONType(req.ServiceFees),
	}
	if req.DeadlineDate != nil {
		deadline := utils.DayStartMillis(*req.DeadlineDate)
		order.DeadlineDate = &deadline
	}

	subOrders, err := h.plans.CreateOrderWithDetails(c.Context(), &order, details, booker.DisplayName)
	if err != nil {
		return mapDomainError(err)
	}
	order.SubOrders = subOrders

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}

type updateDetailsRequest struct {
	UpdateMode services.UpdateMode                 `json:"update_mode" validate:"omitempty,oneof=merge direct_update"`
	Details    map[string]*services.SubOrderDetail `json:"details" validate:"required"`
}

// UpdateDetails writes sub-order details for an editable order. A null
// detail for a date deletes that sub-order.
func (h *OrderHandler) UpdateDetails(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	order, err := h.loadOwnOrder(c, userID)
	if err != nil {
		return err
	}

	if !services.CanEditOrder(order) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "order is not editable in its current state")
	}

	var req updateDetailsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.UpdateMode == "" {
		req.UpdateMode = services.UpdateModeMerge
	}

	details, err := parseDetailDates(req.Details)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var booker models.User
	if err := h.db.First(&booker, "id = ?", userID).Error; err != nil {
		return err
	}

	subOrders, err := h.plans.UpsertDetails(c.Context(), order.ID.String(), details, req.UpdateMode, booker.DisplayName)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": subOrders})
}

// CancelOrder lets the booker cancel their own order while its state
// allows it.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	order, err := h.loadOwnOrder(c, userID)
	if err != nil {
		return err
	}

	var booker models.User
	if err := h.db.First(&booker, "id = ?", userID).Error; err != nil {
		return err
	}

	updated, err := h.lifecycle.UpdateOrderState(c.Context(), order.ID.String(), models.OrderStateCanceledByBooker, booker.DisplayName)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": updated})
}

// SubmitOrder moves a draft to pendingApproval.
func (h *OrderHandler) SubmitOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	order, err := h.loadOwnOrder(c, userID)
	if err != nil {
		return err
	}

	var booker models.User
	if err := h.db.First(&booker, "id = ?", userID).Error; err != nil {
		return err
	}

	updated, err := h.lifecycle.UpdateOrderState(c.Context(), order.ID.String(), models.OrderStatePendingApproval, booker.DisplayName)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": updated})
}

// ListOrders returns the authenticated booker's orders.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Where("booker_id = ?", userID).Model(&models.Order{})

	if state := c.Query("state"); state != "" {
		query = query.Where("order_state = ?", state)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns one order with its sub-orders and the computed guard
// flags the UI gates its actions on.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	order, err := h.loadOwnOrder(c, userID)
	if err != nil {
		return err
	}

	var subOrders []models.SubOrder
	if err := h.db.Where("order_id = ?", order.ID).Order("date asc").Find(&subOrders).Error; err != nil {
		return err
	}
	order.SubOrders = subOrders

	return c.JSON(fiber.Map{
		"success": true,
		"data":    order,
		"guards": fiber.Map{
			"can_start_order":       services.CanStartOrder(order, subOrders),
			"can_cancel_order":      services.CanCancelOrder(order),
			"can_edit_order":        services.CanEditOrder(order),
			"should_manage_picking": services.ShouldManagePicking(order, subOrders),
		},
	})
}

func (h *OrderHandler) loadOwnOrder(c *fiber.Ctx, userID uuid.UUID) (*models.Order, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.First(&order, "id = ? AND booker_id = ?", id, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}
