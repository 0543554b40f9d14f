package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tiffin/internal/middleware"
	"github.com/example/tiffin/internal/models"
	"github.com/example/tiffin/internal/services"
	"github.com/example/tiffin/internal/utils"
)

// AdminHandler manages the operator-only endpoints: order approval,
// staff assignment, and the sub-order delivery workflow.
type AdminHandler struct {
	db          *gorm.DB
	lifecycle   *services.LifecycleService
	transitions *services.TransitionService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, lifecycle *services.LifecycleService, transitions *services.TransitionService) *AdminHandler {
	return &AdminHandler{db: db, lifecycle: lifecycle, transitions: transitions}
}

// DashboardStats returns aggregate statistics for the operator dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	var totalUsers int64
	if err := h.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}

	var totalOrders int64
	if err := h.db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return err
	}

	type stateCount struct {
		OrderState string `json:"order_state"`
		Count      int64  `json:"count"`
	}
	var stateCounts []stateCount
	if err := h.db.Model(&models.Order{}).
		Select("order_state, count(*) as count").
		Group("order_state").
		Scan(&stateCounts).Error; err != nil {
		return err
	}

	ordersByState := make(map[string]int64)
	for _, sc := range stateCounts {
		ordersByState[sc.OrderState] = sc.Count
	}

	// Client receipts across the whole ledger.
	var clientReceipts int64
	if err := h.db.Model(&models.PaymentRecord{}).
		Where("payment_type = ?", models.PaymentTypeClient).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&clientReceipts).Error; err != nil {
		return err
	}

	var partnerPayouts int64
	if err := h.db.Model(&models.PaymentRecord{}).
		Where("payment_type = ?", models.PaymentTypePartner).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&partnerPayouts).Error; err != nil {
		return err
	}

	var activeRestaurants int64
	if err := h.db.Model(&models.Restaurant{}).Where("is_active = ?", true).Count(&activeRestaurants).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":        totalUsers,
			"total_orders":       totalOrders,
			"active_restaurants": activeRestaurants,
			"client_receipts":    clientReceipts,
			"partner_payouts":    partnerPayouts,
			"orders_by_state":    ordersByState,
		},
	})
}

// ListAllOrders returns all orders with pagination, filtering, and booker info.
func (h *AdminHandler) ListAllOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	if state := c.Query("state"); state != "" {
		query = query.Where("order_state = ?", state)
	}

	if search := c.Query("search"); search != "" {
		query = query.Where(
			"code ILIKE ? OR company_name ILIKE ? OR delivery_address ILIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%",
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("SubOrders").Preload("Booker").
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

// GetOrder returns one order with full sub-order detail for the operator.
func (h *AdminHandler) GetOrder(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("SubOrders", func(db *gorm.DB) *gorm.DB {
		return db.Order("date asc")
	}).Preload("Booker").First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    order,
		"guards": fiber.Map{
			"can_start_order":       services.CanStartOrder(&order, order.SubOrders),
			"can_cancel_order":      services.CanCancelOrder(&order),
			"should_manage_picking": services.ShouldManagePicking(&order, order.SubOrders),
		},
	})
}

type updateOrderStateRequest struct {
	OrderState models.OrderState `json:"order_state" validate:"required"`
}

// UpdateOrderState moves an order along its lifecycle.
func (h *AdminHandler) UpdateOrderState(c *fiber.Ctx) error {
	var req updateOrderStateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	by := h.actorName(c)
	order, err := h.lifecycle.UpdateOrderState(c.Context(), c.Params("id"), req.OrderState, by)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type assignStaffRequest struct {
	StaffName string `json:"staff_name" validate:"required"`
}

// AssignStaff records the operations staffer responsible for the order.
func (h *AdminHandler) AssignStaff(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req assignStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	result := h.db.Model(&models.Order{}).
		Where("id = ?", id).
		Update("staff_name", req.StaffName)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	}

	return c.JSON(fiber.Map{"success": true})
}

type applyTransitionRequest struct {
	Date       int64             `json:"date" validate:"required"`
	Transition models.Transition `json:"transition" validate:"required"`
}

// ApplyTransition advances one sub-order through its delivery workflow.
func (h *AdminHandler) ApplyTransition(c *fiber.Ctx) error {
	var req applyTransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	by := h.actorName(c)
	sub, err := h.transitions.Apply(c.Context(), c.Params("id"), req.Date, req.Transition, by)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": sub})
}

// actorName resolves the acting admin's display name for audit entries.
func (h *AdminHandler) actorName(c *fiber.Ctx) string {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return "admin"
	}
	var user models.User
	if err := h.db.Select("display_name").First(&user, "id = ?", userID).Error; err != nil {
		return "admin"
	}
	if user.DisplayName == "" {
		return "admin"
	}
	return user.DisplayName
}
