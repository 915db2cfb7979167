package common

import "time"

// TradingWeekdays are the session days of the US exchanges.
var TradingWeekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
}

// IsTradingDay reports whether t falls on a trading weekday that is not a holiday.
func IsTradingDay(t time.Time, holidays []time.Time) bool {
	isWorkDay := false
	for _, wd := range TradingWeekdays {
		if wd == t.Weekday() {
			isWorkDay = true
			break
		}
	}
	if !isWorkDay {
		return false
	}

	y, m, d := t.Date()
	for _, h := range holidays {
		hy, hm, hd := h.Date()
		if y == hy && m == hm && d == hd {
			return false
		}
	}
	return true
}

// LastTradingDay returns midnight UTC of the most recent trading day on or
// before t. It walks back at most 10 days, covering long holiday breaks.
func LastTradingDay(t time.Time, holidays []time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	for current, i := day, 0; i < 10; i++ {
		if IsTradingDay(current, holidays) {
			return current
		}
		current = current.AddDate(0, 0, -1)
	}
	return day
}
