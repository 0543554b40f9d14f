package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/tiffin/internal/models"
)

// openTestDB gives each test an isolated in-memory database. The shared
// cache keeps the database alive across gorm's pooled connections.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Order{}, &models.SubOrder{}, &models.PaymentRecord{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedOrderWithSubOrder(t *testing.T, db *gorm.DB, date int64) (*models.Order, *models.SubOrder) {
	t.Helper()
	order := &models.Order{
		Code:         "PT" + strings.ToUpper(uuid.NewString()[:8]),
		BookerID:     uuid.New(),
		CompanyName:  "Saigon Logistics",
		OrderState:   models.OrderStateInProgress,
		OrderType:    models.OrderTypeNormal,
		DeliveryHour: "11:30",
		StartDate:    date,
		EndDate:      date,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	sub := &models.SubOrder{
		OrderID:        order.ID,
		Date:           date,
		RestaurantID:   "r1",
		RestaurantName: "Banh Mi 37",
		LastTransition: models.TransitionInitiate,
		Transitions: datatypes.NewJSONType([]models.TransitionEntry{{
			Transition: models.TransitionInitiate,
			By:         "booker",
			CreatedAt:  date,
		}}),
		LastTransitionedAt: date,
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("seed sub-order: %v", err)
	}
	return order, sub
}

func TestAddPaymentRecordRevalidatesAtWrite(t *testing.T) {
	db := openTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	date := dayMillis(2026, time.March, 10)
	order, _ := seedOrderWithSubOrder(t, db, date)
	scope := clientScope(order.ID)
	total := int64(100000)

	// A client read remaining = 100000; a 60000 deposit lands before it
	// submits. The write-time check must price against the fresh sum, not
	// the stale read.
	if _, err := ledger.AddPaymentRecord(ctx, scope, total, 60000, "deposit", order.Code); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	_, err := ledger.AddPaymentRecord(ctx, scope, total, 100000, "stale remainder", order.Code)
	var overErr *OverpaymentError
	if !errors.As(err, &overErr) {
		t.Fatalf("expected OverpaymentError, got %v", err)
	}
	if overErr.Requested != 100000 || overErr.Remaining != 40000 {
		t.Fatalf("requested/remaining = %d/%d, want 100000/40000", overErr.Requested, overErr.Remaining)
	}

	records, err := ledger.ListRecords(ctx, scope)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("rejected add must not persist, have %d records", len(records))
	}

	if _, err := ledger.AddPaymentRecord(ctx, scope, total, 40000, "balance", order.Code); err != nil {
		t.Fatalf("exact remainder: %v", err)
	}
	records, err = ledger.ListRecords(ctx, scope)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if got := Paid(records, scope); got != total {
		t.Fatalf("paid = %d, want %d", got, total)
	}
}

func TestConfirmPartnerPaymentIdempotent(t *testing.T) {
	db := openTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	date := dayMillis(2026, time.March, 11)
	order, sub := seedOrderWithSubOrder(t, db, date)
	scope := partnerScope(order.ID, sub.Date, sub.RestaurantID)
	total := int64(50000)

	if err := ledger.ConfirmPartnerPayment(ctx, scope, total); !errors.Is(err, ErrNotSettled) {
		t.Fatalf("confirm before settlement: got %v, want ErrNotSettled", err)
	}

	if _, err := ledger.AddPaymentRecord(ctx, scope, total, total, "payout", order.Code); err != nil {
		t.Fatalf("payout: %v", err)
	}
	if err := ledger.ConfirmPartnerPayment(ctx, scope, total); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	var confirmed models.SubOrder
	if err := db.First(&confirmed, "id = ?", sub.ID).Error; err != nil {
		t.Fatalf("reload sub-order: %v", err)
	}
	if !confirmed.IsAdminPaymentConfirmed {
		t.Fatal("confirmed flag not set")
	}

	// A repeated confirm is a no-op, never an error.
	if err := ledger.ConfirmPartnerPayment(ctx, scope, total); err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if err := db.First(&confirmed, "id = ?", sub.ID).Error; err != nil {
		t.Fatalf("reload sub-order: %v", err)
	}
	if !confirmed.IsAdminPaymentConfirmed {
		t.Fatal("confirmed flag lost on repeat confirm")
	}
}

func TestApplyAppendsToTransitionLog(t *testing.T) {
	db := openTestDB(t)
	transitions := NewTransitionService(db, nil, nil)
	ctx := context.Background()

	date := dayMillis(2026, time.March, 12)
	order, sub := seedOrderWithSubOrder(t, db, date)

	steps := []models.Transition{
		models.TransitionPartnerConfirm,
		models.TransitionStartDelivery,
		models.TransitionComplete,
	}
	prev := sub.Transitions.Data()
	for _, step := range steps {
		updated, err := transitions.Apply(ctx, order.ID.String(), sub.Date, step, "ops")
		if err != nil {
			t.Fatalf("apply %s: %v", step, err)
		}

		got := updated.Transitions.Data()
		if len(got) != len(prev)+1 {
			t.Fatalf("after %s: log length %d, want %d", step, len(got), len(prev)+1)
		}
		for i := range prev {
			if got[i] != prev[i] {
				t.Fatalf("after %s: entry %d rewritten: %+v -> %+v", step, i, prev[i], got[i])
			}
		}
		if got[len(got)-1].Transition != step {
			t.Fatalf("tail = %s, want %s", got[len(got)-1].Transition, step)
		}
		if updated.LastTransition != step {
			t.Fatalf("lastTransition = %s, want %s", updated.LastTransition, step)
		}

		var stored models.SubOrder
		if err := db.First(&stored, "id = ?", sub.ID).Error; err != nil {
			t.Fatalf("reload sub-order: %v", err)
		}
		if stored.Version != updated.Version {
			t.Fatalf("stored version %d, returned %d", stored.Version, updated.Version)
		}
		if len(stored.Transitions.Data()) != len(got) {
			t.Fatalf("stored log length %d, want %d", len(stored.Transitions.Data()), len(got))
		}
		prev = got
	}

	// Replaying a consumed event fails and leaves the log untouched.
	_, err := transitions.Apply(ctx, order.ID.String(), sub.Date, models.TransitionPartnerConfirm, "ops")
	var invErr *InvalidTransitionError
	if !errors.As(err, &invErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	var stored models.SubOrder
	if err := db.First(&stored, "id = ?", sub.ID).Error; err != nil {
		t.Fatalf("reload sub-order: %v", err)
	}
	if got := len(stored.Transitions.Data()); got != len(steps)+1 {
		t.Fatalf("log length %d after rejected replay, want %d", got, len(steps)+1)
	}
}

func TestCreateOrderWithDetails(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	date := dayMillis(2026, time.March, 13)
	detail := &SubOrderDetail{
		RestaurantID:   "r1",
		RestaurantName: "Banh Mi 37",
		FoodList:       []models.FoodItem{{FoodID: "f1", FoodName: "Com tam", FoodPrice: 45000}},
		MemberOrders:   map[string]models.MemberOrder{"u1": {FoodID: "f1"}},
	}
	details := map[int64]*SubOrderDetail{date: detail}

	newOrder := func() *models.Order {
		return &models.Order{
			BookerID:     uuid.New(),
			OrderState:   models.OrderStateDraft,
			OrderType:    models.OrderTypeNormal,
			DeliveryHour: "11:00",
			StartDate:    date,
			EndDate:      date,
		}
	}

	t.Run("rejected deadline leaves nothing behind", func(t *testing.T) {
		plans := NewPlanService(db)
		order := newOrder()
		deadline := date
		order.DeadlineDate = &deadline
		order.DeadlineHour = "12:00"

		_, err := plans.CreateOrderWithDetails(ctx, order, details, "booker")
		if !errors.Is(err, ErrDeadlineAfterDelivery) {
			t.Fatalf("got %v, want ErrDeadlineAfterDelivery", err)
		}

		var count int64
		if err := db.Model(&models.Order{}).Count(&count).Error; err != nil {
			t.Fatalf("count orders: %v", err)
		}
		if count != 0 {
			t.Fatalf("%d orphan orders after rejected create", count)
		}
		if err := db.Model(&models.SubOrder{}).Count(&count).Error; err != nil {
			t.Fatalf("count sub-orders: %v", err)
		}
		if count != 0 {
			t.Fatalf("%d orphan sub-orders after rejected create", count)
		}
	})

	t.Run("creates order and sub-orders together", func(t *testing.T) {
		plans := NewPlanService(db)
		order := newOrder()

		subOrders, err := plans.CreateOrderWithDetails(ctx, order, details, "booker")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if order.ID == uuid.Nil || !strings.HasPrefix(order.Code, "PT") {
			t.Fatalf("order not persisted properly: id=%s code=%q", order.ID, order.Code)
		}
		if len(subOrders) != 1 {
			t.Fatalf("%d sub-orders, want 1", len(subOrders))
		}
		if subOrders[0].LastTransition != models.TransitionInitiate {
			t.Fatalf("new sub-order lastTransition = %s", subOrders[0].LastTransition)
		}
	})

	t.Run("regenerates the code on a collision", func(t *testing.T) {
		plans := NewPlanService(db)
		var taken models.Order
		if err := db.First(&taken).Error; err != nil {
			t.Fatalf("load existing order: %v", err)
		}

		codes := []string{taken.Code, "PT90210TEST"}
		plans.newCode = func() string {
			code := codes[0]
			if len(codes) > 1 {
				codes = codes[1:]
			}
			return code
		}

		order := newOrder()
		if _, err := plans.CreateOrderWithDetails(ctx, order, details, "booker"); err != nil {
			t.Fatalf("create with colliding code: %v", err)
		}
		if order.Code != "PT90210TEST" {
			t.Fatalf("code = %q, want the regenerated one", order.Code)
		}
	})
}
