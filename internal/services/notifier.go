package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/example/tiffin/internal/models"
	"github.com/example/tiffin/internal/utils"
)

// NotificationType labels a notification event for the receiving side.
type NotificationType string

const (
	NotificationPartnerConfirmed NotificationType = "PARTNER_CONFIRMED_SUB_ORDER"
	NotificationDeliveryStarted  NotificationType = "DELIVERY_STARTED"
	NotificationDeliveryDone     NotificationType = "DELIVERY_COMPLETED"
	NotificationPlanCanceled     NotificationType = "PLAN_CANCELED"
	NotificationOrderState       NotificationType = "ORDER_STATE_CHANGED"
	NotificationDeadlineSoon     NotificationType = "SELECTION_DEADLINE_SOON"
)

// transitionNotificationTypes maps each emitting transition to exactly one
// notification type. INITIATE_TRANSACTION is the default state and emits
// nothing.
var transitionNotificationTypes = map[models.Transition]NotificationType{
	models.TransitionPartnerConfirm: NotificationPartnerConfirmed,
	models.TransitionStartDelivery:  NotificationDeliveryStarted,
	models.TransitionComplete:       NotificationDeliveryDone,
	models.TransitionOperatorCancel: NotificationPlanCanceled,
}

// NotifierService pushes operational notifications to the ops Telegram
// chat. Delivery is fire-and-forget: failures are logged and never
// propagated to the caller of the state-changing operation.
type NotifierService struct {
	botToken  string
	opsChatID string
}

// NewNotifierService creates a NotifierService.
func NewNotifierService(botToken, opsChatID string) *NotifierService {
	return &NotifierService{botToken: botToken, opsChatID: opsChatID}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func (s *NotifierService) send(text string) {
	if s.botToken == "" || s.opsChatID == "" {
		log.Println("[Notifier] bot token or chat not configured, dropping message")
		return
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)
	body, err := json.Marshal(telegramMessage{
		ChatID:    s.opsChatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		log.Printf("[Notifier] marshal failed: %v", err)
		return
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Notifier] send failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Notifier] unexpected status: %d", resp.StatusCode)
	}
}

// FormatVND renders a VND amount with thousand separators.
func FormatVND(amount int64) string {
	str := fmt.Sprintf("%d", amount)
	neg := strings.HasPrefix(str, "-")
	if neg {
		str = str[1:]
	}

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(".")
		}
		result.WriteRune(digit)
	}
	out := result.String() + " ₫"
	if neg {
		out = "-" + out
	}
	return out
}

// NotifyTransition emits exactly one typed event for an applied sub-order
// transition, addressed to the partner party.
func (s *NotifierService) NotifyTransition(event TransitionNotification) {
	notifType, ok := transitionNotificationTypes[event.Transition]
	if !ok {
		return
	}

	message := fmt.Sprintf(`<b>%s</b>
<b>Order:</b> %s
<b>Company:</b> %s
<b>Delivery date:</b> %s
<b>Plan:</b> %s
<b>User:</b> %s`,
		notifType,
		event.OrderCode,
		event.CompanyName,
		utils.FormatBusinessDate(event.SubOrderDate),
		event.PlanID,
		event.UserID,
	)

	s.send(strings.TrimSpace(message))
}

// NotifyOrderState announces an order-level state change.
func (s *NotifierService) NotifyOrderState(orderCode, companyName string, state models.OrderState) {
	message := fmt.Sprintf(`<b>%s</b>
<b>Order:</b> %s
<b>Company:</b> %s
<b>New state:</b> %s`,
		NotificationOrderState,
		orderCode,
		companyName,
		state,
	)
	s.send(strings.TrimSpace(message))
}

// NotifyDeadlineSoon reminds the booker channel of an approaching
// participant-selection deadline.
func (s *NotifierService) NotifyDeadlineSoon(orderCode, companyName string, deadlineMillis int64, deadlineHour string) {
	message := fmt.Sprintf(`<b>%s</b>
<b>Order:</b> %s
<b>Company:</b> %s
<b>Deadline:</b> %s %s`,
		NotificationDeadlineSoon,
		orderCode,
		companyName,
		utils.FormatBusinessDate(deadlineMillis),
		deadlineHour,
	)
	s.send(strings.TrimSpace(message))
}

func logSideEffect(kind, key string, err error) {
	log.Printf("[SideEffect] %s %s failed (will not roll back transition): %v", kind, key, err)
}
