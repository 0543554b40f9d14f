package utils

import (
	"log"
	"time"
)

// DefaultBusinessTimezone is where deliveries happen; sub-order dates are
// normalized against it on both read and write paths.
const DefaultBusinessTimezone = "Asia/Ho_Chi_Minh"

var businessLocation = mustLoadLocation(DefaultBusinessTimezone)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("[Time] failed to load %s, falling back to UTC+7: %v", name, err)
		return time.FixedZone("ICT", 7*3600)
	}
	return loc
}

// ConfigureBusinessTimezone switches the business timezone, normally from
// BUSINESS_TIMEZONE at startup. Must run before any date math; an unknown
// name keeps the current location.
func ConfigureBusinessTimezone(name string) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("[Time] unknown timezone %q, keeping %s: %v", name, businessLocation, err)
		return
	}
	businessLocation = loc
}

// BusinessLocation returns the configured business timezone.
func BusinessLocation() *time.Location {
	return businessLocation
}

// DayStartMillis normalizes an epoch-millis timestamp to the start of its
// calendar day in the business timezone.
func DayStartMillis(millis int64) int64 {
	t := time.UnixMilli(millis).In(businessLocation)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, businessLocation)
	return day.UnixMilli()
}

// FormatBusinessDate renders a day-millis timestamp as dd/MM/yyyy for
// exports and notifications.
func FormatBusinessDate(millis int64) string {
	return time.UnixMilli(millis).In(businessLocation).Format("02/01/2006")
}
