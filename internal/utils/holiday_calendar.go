package utils

import (
	"time"

	cal "github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

// closedHolidays are the days crews are off. Cleanings stay bookable on the
// remaining federal holidays and on observed weekdays.
var closedHolidays = newClosedCalendar(
	us.NewYear,
	us.MemorialDay,
	us.IndependenceDay,
	us.LaborDay,
	us.ThanksgivingDay,
	us.ChristmasDay,
)

func newClosedCalendar(holidays ...*cal.Holiday) *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.AddHoliday(holidays...)
	return c
}

// ClosedHoliday reports whether no cleanings run on d and names the holiday.
// Only the calendar date counts, so a Saturday Fourth of July closes Saturday.
func ClosedHoliday(d time.Time) (string, bool) {
	actual, _, h := closedHolidays.IsHoliday(d)
	if !actual || h == nil {
		return "", false
	}
	return h.Name, true
}
