package cron

import (
	"fmt"
	"time"
)

// Declarative shorthand builders for common cadences. Each returns a
// canonical cron expression, so a definition built from a shorthand is
// indistinguishable from one registered with the expression directly.

// EverySeconds returns a descriptor firing every n seconds.
func EverySeconds(n int) string {
	return fmt.Sprintf("@every %ds", n)
}

// EveryMinutes returns a 5-field expression firing every n minutes.
func EveryMinutes(n int) string {
	return fmt.Sprintf("*/%d * * * *", n)
}

// HourlyAt returns an expression firing at the given minute of every hour.
func HourlyAt(minute int) string {
	return fmt.Sprintf("%d * * * *", minute)
}

// DailyAt returns an expression firing once a day at hour:minute.
func DailyAt(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

// WeeklyOn returns an expression firing weekly on the given weekday at
// hour:minute.
func WeeklyOn(day time.Weekday, hour, minute int) string {
	return fmt.Sprintf("%d %d * * %d", minute, hour, int(day))
}

// MonthlyOn returns an expression firing monthly on the given day of
// month at hour:minute.
func MonthlyOn(dayOfMonth, hour, minute int) string {
	return fmt.Sprintf("%d %d %d * *", minute, hour, dayOfMonth)
}
