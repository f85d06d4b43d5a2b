package core

import "time"

// DateParts is one calendar day of a query window, pre-split into the
// literal components the day-scoped DAX filter embeds.
type DateParts struct {
	Date  time.Time
	Year  int
	Month int
	Day   int
}

// Format returns the day as YYYY-MM-DD, the form used for the Query_Date
// column and for window labels.
func (d DateParts) Format() string {
	return d.Date.Format("2006-01-02")
}

// DateRange enumerates every calendar date from start to end inclusive,
// ascending, one entry per day. An end before start yields nil.
func DateRange(start, end time.Time) []DateParts {
	start = truncateToDay(start)
	end = truncateToDay(end)

	var days []DateParts
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, DateParts{
			Date:  d,
			Year:  d.Year(),
			Month: int(d.Month()),
			Day:   d.Day(),
		})
	}
	return days
}

// TrailingWindow returns the inclusive window of the trailing `days` days
// ending at now's calendar date. days=14 covers today plus the 14 days
// before it, matching the metrics model's detail retention.
func TrailingWindow(days int, now time.Time) (start, end time.Time) {
	end = truncateToDay(now)
	start = end.AddDate(0, 0, -days)
	return start, end
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
