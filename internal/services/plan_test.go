package services

import (
	"errors"
	"testing"
	"time"

	"github.com/example/tiffin/internal/models"
	"github.com/example/tiffin/internal/utils"
)

func dayMillis(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 0, 0, 0, 0, utils.BusinessLocation()).UnixMilli()
}

func TestDeliveryTimeMillis(t *testing.T) {
	day := dayMillis(2024, time.March, 15)

	if got := deliveryTimeMillis(day, "11:30"); got != day+11*3600_000+30*60_000 {
		t.Fatalf("deliveryTimeMillis = %d", got)
	}

	t.Run("unparseable hour falls back to midnight", func(t *testing.T) {
		if got := deliveryTimeMillis(day, "lunch"); got != day {
			t.Fatalf("deliveryTimeMillis = %d, want day start", got)
		}
	})
}

func TestValidateDeadline(t *testing.T) {
	day15 := dayMillis(2024, time.March, 15)
	day16 := dayMillis(2024, time.March, 16)
	day17 := dayMillis(2024, time.March, 17)

	t.Run("no deadline passes", func(t *testing.T) {
		order := &models.Order{DeliveryHour: "11:00"}
		if err := ValidateDeadline(order, []int64{day16}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("deadline before earliest delivery passes", func(t *testing.T) {
		order := &models.Order{
			DeadlineDate: &day15,
			DeadlineHour: "17:00",
			DeliveryHour: "11:00",
		}
		if err := ValidateDeadline(order, []int64{day17, day16}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("deadline after a delivery is rejected", func(t *testing.T) {
		order := &models.Order{
			DeadlineDate: &day16,
			DeadlineHour: "12:00",
			DeliveryHour: "11:00",
		}
		err := ValidateDeadline(order, []int64{day16, day17})
		if !errors.Is(err, ErrDeadlineAfterDelivery) {
			t.Fatalf("expected ErrDeadlineAfterDelivery, got %v", err)
		}
	})

	t.Run("deadline equal to delivery is rejected", func(t *testing.T) {
		order := &models.Order{
			DeadlineDate: &day16,
			DeadlineHour: "11:00",
			DeliveryHour: "11:00",
		}
		err := ValidateDeadline(order, []int64{day16})
		if !errors.Is(err, ErrDeadlineAfterDelivery) {
			t.Fatalf("strictly-before must reject equality, got %v", err)
		}
	})
}
