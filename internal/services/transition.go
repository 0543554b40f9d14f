package services

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/example/tiffin/internal/models"
	"github.com/example/tiffin/internal/utils"
)

// subOrderTransitionFlow maps each transition event to the states it may be
// applied from: a linear delivery workflow with a side-exit to cancel.
// Exhaustiveness against the Transition enum is asserted in tests.
var subOrderTransitionFlow = map[models.Transition][]models.Transition{
	models.TransitionPartnerConfirm: {models.TransitionInitiate},
	models.TransitionStartDelivery:  {models.TransitionPartnerConfirm},
	models.TransitionComplete:       {models.TransitionStartDelivery},
	models.TransitionOperatorCancel: {
		models.TransitionInitiate,
		models.TransitionPartnerConfirm,
		models.TransitionStartDelivery,
	},
}

// participantStatusFor derives the participant-facing tracking status a
// transition propagates, or "" when the transition is not participant-visible.
func participantStatusFor(event models.Transition) string {
	switch event {
	case models.TransitionStartDelivery:
		return "DELIVERING"
	case models.TransitionComplete:
		return "DELIVERED"
	case models.TransitionOperatorCancel:
		return "CANCELED"
	default:
		return ""
	}
}

// CanApplyTransition reports whether event is legal from the current
// sub-order state.
func CanApplyTransition(current, event models.Transition) bool {
	for _, from := range subOrderTransitionFlow[event] {
		if from == current {
			return true
		}
	}
	return false
}

// TrackingSink receives participant-facing delivery statuses. Failures are
// logged and retried independently, never propagated to the state write.
type TrackingSink interface {
	SetParticipantStatus(ctx context.Context, key, status string) error
}

// NotificationSink receives one typed event per applied transition.
type NotificationSink interface {
	NotifyTransition(event TransitionNotification)
}

// TransitionNotification is the payload handed to the notification sink.
type TransitionNotification struct {
	UserID       string
	OrderID      string
	OrderCode    string
	PlanID       string
	SubOrderDate int64
	CompanyName  string
	Transition   models.Transition
}

// TransitionService drives the per-(order, date) delivery state machine.
type TransitionService struct {
	db       *gorm.DB
	tracking TrackingSink
	notifier NotificationSink
}

// NewTransitionService constructs TransitionService.
func NewTransitionService(db *gorm.DB, tracking TrackingSink, notifier NotificationSink) *TransitionService {
	return &TransitionService{db: db, tracking: tracking, notifier: notifier}
}

// Apply validates and appends one transition to the sub-order identified by
// (orderID, date). The append and the lastTransition update ride a single
// version-conditioned UPDATE: losing a race surfaces as StaleWriteConflict
// and the caller re-reads and retries. Side effects fire after the durable
// write and never roll it back.
func (s *TransitionService) Apply(ctx context.Context, orderID string, date int64, event models.Transition, by string) (*models.SubOrder, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	var sub models.SubOrder
	if err := s.db.WithContext(ctx).
		First(&sub, "order_id = ? AND date = ?", orderID, date).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrSubOrderNotFound
		}
		return nil, err
	}

	if !CanApplyTransition(sub.LastTransition, event) {
		return nil, &InvalidTransitionError{From: string(sub.LastTransition), Event: string(event)}
	}

	now := time.Now().UnixMilli()
	entries := append(sub.Transitions.Data(), models.TransitionEntry{
		Transition: event,
		By:         by,
		CreatedAt:  now,
	})

	res := s.db.WithContext(ctx).
		Model(&models.SubOrder{}).
		Where("id = ? AND version = ?", sub.ID, sub.Version).
		Updates(map[string]any{
			"transitions":          datatypes.NewJSONType(entries),
			"last_transition":      event,
			"last_transitioned_at": now,
			"version":              sub.Version + 1,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &StaleWriteConflictError{OrderID: orderID, Date: date}
	}

	sub.Transitions = datatypes.NewJSONType(entries)
	sub.LastTransition = event
	sub.LastTransitionedAt = now
	sub.Version++

	go s.fireSideEffects(&order, &sub, event)

	return &sub, nil
}

// fireSideEffects propagates participant statuses and emits the transition
// notification. Each participant write is independent; one failure never
// blocks the others.
func (s *TransitionService) fireSideEffects(order *models.Order, sub *models.SubOrder, event models.Transition) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if status := participantStatusFor(event); status != "" && s.tracking != nil {
		dayStart := utils.DayStartMillis(sub.Date)
		for participantID := range sub.MemberOrders.Data() {
			key := ParticipantStatusKey(participantID, sub.ID.String(), dayStart)
			if err := s.tracking.SetParticipantStatus(ctx, key, status); err != nil {
				logSideEffect("participant status", key, err)
			}
		}
	}

	if s.notifier != nil && event != models.TransitionInitiate {
		s.notifier.NotifyTransition(TransitionNotification{
			UserID:       order.BookerID.String(),
			OrderID:      order.ID.String(),
			OrderCode:    order.Code,
			PlanID:       sub.ID.String(),
			SubOrderDate: sub.Date,
			CompanyName:  order.CompanyName,
			Transition:   event,
		})
	}
}
