package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/example/tiffin/internal/models"
	"github.com/example/tiffin/internal/utils"
)

// UpdateMode selects how sub-order details are written.
type UpdateMode string

const (
	// UpdateModeMerge folds incoming member selections into the existing
	// map, keeping untouched participants.
	UpdateModeMerge UpdateMode = "merge"
	// UpdateModeDirect replaces the sub-order detail wholesale.
	UpdateModeDirect UpdateMode = "direct_update"
)

// ErrDeadlineAfterDelivery rejects deadlines that do not precede the
// earliest governed delivery.
var ErrDeadlineAfterDelivery = errors.New("selection deadline must be before the earliest delivery")

// ErrSubOrderInWorkflow rejects deleting a sub-order whose delivery
// workflow already moved past the initial state; such plans can only be
// canceled via transition.
var ErrSubOrderInWorkflow = errors.New("sub-order already entered the delivery workflow")

// SubOrderDetail is the per-date payload accepted by the plan write path.
// A nil detail for a date deletes that sub-order.
type SubOrderDetail struct {
	RestaurantID   string                        `json:"restaurant_id"`
	RestaurantName string                        `json:"restaurant_name"`
	FoodList       []models.FoodItem             `json:"food_list"`
	MemberOrders   map[string]models.MemberOrder `json:"member_orders"`
}

// deliveryTimeMillis combines a day-start timestamp with an "HH:MM" hour.
func deliveryTimeMillis(dayMillis int64, hour string) int64 {
	t, err := time.ParseInLocation("15:04", hour, utils.BusinessLocation())
	if err != nil {
		return dayMillis
	}
	return dayMillis + int64(t.Hour())*time.Hour.Milliseconds() + int64(t.Minute())*time.Minute.Milliseconds()
}

// ValidateDeadline enforces the order invariant: the selection deadline,
// when present, is strictly before the earliest sub-order delivery time.
func ValidateDeadline(order *models.Order, dates []int64) error {
	if order.DeadlineDate == nil || len(dates) == 0 {
		return nil
	}
	deadline := deliveryTimeMillis(utils.DayStartMillis(*order.DeadlineDate), order.DeadlineHour)

	earliest := dates[0]
	for _, d := range dates[1:] {
		if d < earliest {
			earliest = d
		}
	}
	if deadline >= deliveryTimeMillis(earliest, order.DeliveryHour) {
		return ErrDeadlineAfterDelivery
	}
	return nil
}

// PlanService owns the sub-order write path: keyed partial merges and full
// replaces at sub-order-date granularity, plus the transactional order
// create that seeds the first sub-orders.
type PlanService struct {
	db      *gorm.DB
	newCode func() string
}

// NewPlanService constructs PlanService.
func NewPlanService(db *gorm.DB) *PlanService {
	return &PlanService{db: db, newCode: utils.GenerateOrderCode}
}

// normalizeDetails collapses raw date keys to start-of-day in the business
// timezone and collects the delivery dates of the non-deleting entries.
func normalizeDetails(details map[int64]*SubOrderDetail) (map[int64]*SubOrderDetail, []int64) {
	normalized := make(map[int64]*SubOrderDetail, len(details))
	dates := make([]int64, 0, len(details))
	for rawDate, detail := range details {
		day := utils.DayStartMillis(rawDate)
		normalized[day] = detail
		if detail != nil {
			dates = append(dates, day)
		}
	}
	return normalized, dates
}

// orderCodeAttempts bounds the retry loop when a generated order code hits
// the unique index.
const orderCodeAttempts = 3

// CreateOrderWithDetails writes the order shell and its initial sub-orders
// in one transaction: a rejected deadline or a failed sub-order write rolls
// everything back, so no orphan order is ever visible. A code collision on
// the unique index regenerates the code and retries the whole transaction.
func (s *PlanService) CreateOrderWithDetails(ctx context.Context, order *models.Order, details map[int64]*SubOrderDetail, by string) ([]models.SubOrder, error) {
	normalized, dates := normalizeDetails(details)
	if err := ValidateDeadline(order, dates); err != nil {
		return nil, err
	}

	var result []models.SubOrder
	var err error
	for attempt := 0; attempt < orderCodeAttempts; attempt++ {
		order.Code = s.newCode()
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(order).Error; err != nil {
				return err
			}
			subOrders, err := s.applyDetails(tx, order, normalized, UpdateModeDirect, by)
			if err != nil {
				return err
			}
			result = subOrders
			return nil
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpsertDetails writes the given per-date details for an order. Dates are
// normalized to start-of-day in the business timezone on the way in, so the
// read and write paths always agree on keys. New sub-orders enter the
// workflow at INITIATE_TRANSACTION with a seeded transition log.
func (s *PlanService) UpsertDetails(ctx context.Context, orderID string, details map[int64]*SubOrderDetail, mode UpdateMode, by string) ([]models.SubOrder, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	normalized, dates := normalizeDetails(details)
	if err := ValidateDeadline(&order, dates); err != nil {
		return nil, err
	}

	var result []models.SubOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subOrders, err := s.applyDetails(tx, &order, normalized, mode, by)
		if err != nil {
			return err
		}
		result = subOrders
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyDetails runs the per-date writes inside the caller's transaction.
func (s *PlanService) applyDetails(tx *gorm.DB, order *models.Order, details map[int64]*SubOrderDetail, mode UpdateMode, by string) ([]models.SubOrder, error) {
	var result []models.SubOrder
	for day, detail := range details {
		if detail == nil {
			if err := s.deleteSubOrder(tx, order.ID.String(), day); err != nil {
				return nil, err
			}
			continue
		}

		sub, err := s.upsertSubOrder(tx, order, day, detail, mode, by)
		if err != nil {
			return nil, err
		}
		result = append(result, *sub)
	}
	return result, nil
}

func (s *PlanService) deleteSubOrder(tx *gorm.DB, orderID string, day int64) error {
	var sub models.SubOrder
	err := forUpdate(tx).First(&sub, "order_id = ? AND date = ?", orderID, day).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if sub.LastTransition != models.TransitionInitiate {
		return ErrSubOrderInWorkflow
	}
	return tx.Delete(&sub).Error
}

func (s *PlanService) upsertSubOrder(tx *gorm.DB, order *models.Order, day int64, detail *SubOrderDetail, mode UpdateMode, by string) (*models.SubOrder, error) {
	var sub models.SubOrder
	err := forUpdate(tx).First(&sub, "order_id = ? AND date = ?", order.ID, day).Error
	if err == gorm.ErrRecordNotFound {
		sub = models.SubOrder{
			OrderID:        order.ID,
			Date:           day,
			RestaurantID:   detail.RestaurantID,
			RestaurantName: detail.RestaurantName,
			FoodList:       datatypes.NewJSONType(detail.FoodList),
			MemberOrders:   datatypes.NewJSONType(detail.MemberOrders),
			LastTransition: models.TransitionInitiate,
			Transitions: datatypes.NewJSONType([]models.TransitionEntry{{
				Transition: models.TransitionInitiate,
				By:         by,
				CreatedAt:  time.Now().UnixMilli(),
			}}),
			LastTransitionedAt: time.Now().UnixMilli(),
		}
		if err := tx.Create(&sub).Error; err != nil {
			return nil, err
		}
		return &sub, nil
	}
	if err != nil {
		return nil, err
	}

	members := detail.MemberOrders
	if mode == UpdateModeMerge {
		merged := sub.MemberOrders.Data()
		if merged == nil {
			merged = make(map[string]models.MemberOrder)
		}
		for participantID, mo := range detail.MemberOrders {
			merged[participantID] = mo
		}
		members = merged
	}

	updates := map[string]any{
		"member_orders": datatypes.NewJSONType(members),
	}
	if detail.RestaurantID != "" {
		updates["restaurant_id"] = detail.RestaurantID
		updates["restaurant_name"] = detail.RestaurantName
	}
	if len(detail.FoodList) > 0 || mode == UpdateModeDirect {
		updates["food_list"] = datatypes.NewJSONType(detail.FoodList)
	}

	if err := tx.Model(&sub).Updates(updates).Error; err != nil {
		return nil, err
	}

	sub.MemberOrders = datatypes.NewJSONType(members)
	if detail.RestaurantID != "" {
		sub.RestaurantID = detail.RestaurantID
		sub.RestaurantName = detail.RestaurantName
	}
	if len(detail.FoodList) > 0 || mode == UpdateModeDirect {
		sub.FoodList = datatypes.NewJSONType(detail.FoodList)
	}
	return &sub, nil
}
