package report

import (
	"strconv"
	"time"

	"diarias/internal/core"
)

const (
	markPaid    = "✓"
	markPending = "•"
)

// Calendar lays out a Monday-first month grid for every month of year. Days
// with a working day entry carry a paid or pending mark.
func Calendar(year int, days []core.DayRow) Table {
	marks := make(map[string]string, len(days))
	for _, d := range days {
		if d.Status == core.StatusPaid {
			marks[d.Date.String()] = markPaid
		} else {
			marks[d.Date.String()] = markPending
		}
	}

	t := Table{Name: SheetCalendar, Header: []string{"Month", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}}
	for m := time.January; m <= time.December; m++ {
		first := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
		label := first.Format("January 2006")
		week := newWeek(label)
		col := (int(first.Weekday()) + 6) % 7
		for d := first; d.Month() == m; d = d.AddDate(0, 0, 1) {
			cell := strconv.Itoa(d.Day())
			if mark, ok := marks[d.Format(core.DateLayout)]; ok {
				cell += " " + mark
			}
			week[col+1] = cell
			col++
			if col == 7 {
				t.Rows = append(t.Rows, week)
				week = newWeek("")
				col = 0
			}
		}
		if col > 0 {
			t.Rows = append(t.Rows, week)
		}
	}
	return t
}

func newWeek(label string) []Cell {
	return []Cell{label, "", "", "", "", "", "", ""}
}
