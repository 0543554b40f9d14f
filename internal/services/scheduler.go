package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"

	"github.com/example/tiffin/internal/models"
	"github.com/example/tiffin/internal/utils"
)

// reminderWindow is how far ahead of a selection deadline the reminder
// fires.
const reminderWindow = 24 * time.Hour

// DeadlineScheduler periodically reminds bookers of approaching
// participant-selection deadlines on orders still in picking.
type DeadlineScheduler struct {
	db        *gorm.DB
	notifier  *NotifierService
	scheduler gocron.Scheduler
}

// NewDeadlineScheduler constructs DeadlineScheduler.
func NewDeadlineScheduler(db *gorm.DB, notifier *NotifierService) *DeadlineScheduler {
	return &DeadlineScheduler{db: db, notifier: notifier}
}

// Start begins the hourly reminder sweep in the business timezone.
func (d *DeadlineScheduler) Start() error {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(utils.BusinessLocation()),
	)
	if err != nil {
		return err
	}
	d.scheduler = s

	if _, err := s.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(d.remindDeadlines),
	); err != nil {
		return err
	}

	s.Start()
	log.Println("[Scheduler] deadline reminder started (hourly)")
	return nil
}

// Stop shuts the scheduler down.
func (d *DeadlineScheduler) Stop() {
	if d.scheduler != nil {
		if err := d.scheduler.Shutdown(); err != nil {
			log.Printf("[Scheduler] shutdown failed: %v", err)
		}
	}
}

func (d *DeadlineScheduler) remindDeadlines() {
	now := time.Now().UnixMilli()
	horizon := now + reminderWindow.Milliseconds()

	var orders []models.Order
	if err := d.db.
		Where("order_state = ?", models.OrderStatePicking).
		Where("deadline_date IS NOT NULL AND deadline_date BETWEEN ? AND ?", now, horizon).
		Find(&orders).Error; err != nil {
		log.Printf("[Scheduler] deadline sweep failed: %v", err)
		return
	}

	for i := range orders {
		order := &orders[i]
		d.notifier.NotifyDeadlineSoon(order.Code, order.CompanyName, *order.DeadlineDate, order.DeadlineHour)
	}
	if len(orders) > 0 {
		log.Printf("[Scheduler] sent %d deadline reminders", len(orders))
	}
}
