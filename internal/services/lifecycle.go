package services

import (
	"context"
	"log"

	"gorm.io/gorm"

	"github.com/example/tiffin/internal/models"
)

// orderStateFlow is the static transition table for order-level states.
// updateOrderState rejects any target not listed for the current state.
// Exhaustiveness against the OrderState enum is asserted in tests.
var orderStateFlow = map[models.OrderState][]models.OrderState{
	models.OrderStateDraft: {
		models.OrderStatePendingApproval,
		models.OrderStateCanceledByBooker,
	},
	models.OrderStatePendingApproval: {
		models.OrderStatePicking,
		models.OrderStateCanceled,
		models.OrderStateCanceledByBooker,
	},
	models.OrderStatePicking: {
		models.OrderStateInProgress,
		models.OrderStateCanceled,
	},
	models.OrderStateInProgress: {
		models.OrderStateCompleted,
		models.OrderStateCanceled,
	},
	models.OrderStateCompleted:        {},
	models.OrderStateCanceled:         {},
	models.OrderStateCanceledByBooker: {},
}

// CanReachOrderState reports whether target is reachable from current per
// the transition-flow table.
func CanReachOrderState(current, target models.OrderState) bool {
	for _, s := range orderStateFlow[current] {
		if s == target {
			return true
		}
	}
	return false
}

// CanCancelOrder reports whether the order may still be canceled by an
// operator from its current state.
func CanCancelOrder(order *models.Order) bool {
	return CanReachOrderState(order.OrderState, models.OrderStateCanceled)
}

// CanEditOrder lists the states in which order metadata may still change.
// A group order in picking may still be edited; a normal order may not,
// since its selections were fixed at submission.
func CanEditOrder(order *models.Order) bool {
	switch order.OrderState {
	case models.OrderStateDraft, models.OrderStatePendingApproval:
		return true
	case models.OrderStatePicking:
		return order.OrderType == models.OrderTypeGroup
	default:
		return false
	}
}

// subOrderComplete applies the per-type completeness rule: a group
// sub-order needs at least one confirmed participant selection, a normal
// sub-order needs every selection resolved to a dish.
func subOrderComplete(sub *models.SubOrder, orderType models.OrderType) bool {
	members := sub.MemberOrders.Data()
	if len(members) == 0 {
		return false
	}
	if orderType == models.OrderTypeGroup {
		for _, mo := range members {
			if mo.FoodID != "" {
				return true
			}
		}
		return false
	}
	for _, mo := range members {
		if mo.FoodID == "" {
			return false
		}
	}
	return true
}

// CanStartOrder is true only when the order sits in picking and every
// sub-order has selections appropriate to the order type.
func CanStartOrder(order *models.Order, subOrders []models.SubOrder) bool {
	if order.OrderState != models.OrderStatePicking {
		return false
	}
	if len(subOrders) == 0 {
		return false
	}
	for i := range subOrders {
		if !subOrderComplete(&subOrders[i], order.OrderType) {
			return false
		}
	}
	return true
}

// ShouldManagePicking is true while picking management remains relevant:
// the order nominally progressed to inProgress but at least one sub-order
// has not moved past partner confirmation.
func ShouldManagePicking(order *models.Order, subOrders []models.SubOrder) bool {
	if order.OrderState != models.OrderStateInProgress {
		return false
	}
	for i := range subOrders {
		switch subOrders[i].LastTransition {
		case models.TransitionInitiate, models.TransitionPartnerConfirm:
			return true
		}
	}
	return false
}

// LifecycleService mutates order-level state. It is the only writer of
// Order.OrderState; sub-order transitions never change it implicitly.
type LifecycleService struct {
	db       *gorm.DB
	notifier *NotifierService
}

// NewLifecycleService constructs LifecycleService.
func NewLifecycleService(db *gorm.DB, notifier *NotifierService) *LifecycleService {
	return &LifecycleService{db: db, notifier: notifier}
}

// UpdateOrderState moves the order to newState after validating the
// transition-flow table inside a locked transaction, so two racing admins
// cannot both move the same order.
func (s *LifecycleService) UpdateOrderState(ctx context.Context, orderID string, newState models.OrderState, by string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&order, "id = ?", orderID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrOrderNotFound
			}
			return err
		}

		if !CanReachOrderState(order.OrderState, newState) {
			return &InvalidTransitionError{From: string(order.OrderState), Event: string(newState)}
		}

		if err := tx.Model(&order).Update("order_state", newState).Error; err != nil {
			return err
		}
		order.OrderState = newState
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Lifecycle] order %s moved to %s by %s", order.Code, newState, by)
	if s.notifier != nil {
		go s.notifier.NotifyOrderState(order.Code, order.CompanyName, newState)
	}
	return &order, nil
}
