package utils

import (
	"testing"
	"time"
)

func TestDayStartMillis(t *testing.T) {
	loc := BusinessLocation()

	t.Run("mid-day collapses to midnight", func(t *testing.T) {
		noon := time.Date(2024, 3, 15, 12, 30, 0, 0, loc)
		want := time.Date(2024, 3, 15, 0, 0, 0, 0, loc).UnixMilli()
		if got := DayStartMillis(noon.UnixMilli()); got != want {
			t.Fatalf("DayStartMillis = %d, want %d", got, want)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		noon := time.Date(2024, 3, 15, 12, 30, 0, 0, loc).UnixMilli()
		once := DayStartMillis(noon)
		if twice := DayStartMillis(once); twice != once {
			t.Fatalf("DayStartMillis not idempotent: %d != %d", twice, once)
		}
	})

	t.Run("UTC evening is next day in Ho Chi Minh", func(t *testing.T) {
		// 20:00 UTC = 03:00 +07 the next calendar day.
		utcEvening := time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC)
		want := time.Date(2024, 3, 16, 0, 0, 0, 0, loc).UnixMilli()
		if got := DayStartMillis(utcEvening.UnixMilli()); got != want {
			t.Fatalf("DayStartMillis = %d, want %d", got, want)
		}
	})
}

func TestConfigureBusinessTimezone(t *testing.T) {
	defer ConfigureBusinessTimezone(DefaultBusinessTimezone)

	ConfigureBusinessTimezone("UTC")
	utcEvening := time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC)
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC).UnixMilli()
	if got := DayStartMillis(utcEvening.UnixMilli()); got != want {
		t.Fatalf("after switching to UTC: DayStartMillis = %d, want %d", got, want)
	}

	t.Run("unknown name keeps current location", func(t *testing.T) {
		ConfigureBusinessTimezone("Mars/Olympus_Mons")
		if got := BusinessLocation().String(); got != "UTC" {
			t.Fatalf("location changed to %q on unknown name", got)
		}
	})
}
