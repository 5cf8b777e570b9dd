package report

import (
	"encoding/json"
	"time"

	v1 "github.com/beanmart/salesmart/internal/api/v1"
)

// Window is an inclusive range of calendar days.
type Window struct {
	Start time.Time
	End   time.Time
}

// MonthWindow returns the first and last day of the calendar month containing t (UTC).
func MonthWindow(t time.Time) Window {
	t = v1.NormalizeDate(t)
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Window{
		Start: start,
		End:   start.AddDate(0, 1, -1),
	}
}

// PreviousMonth returns the window of the calendar month before the one containing t.
func PreviousMonth(t time.Time) Window {
	cur := MonthWindow(t)
	return MonthWindow(cur.Start.AddDate(0, 0, -1))
}

func (w Window) String() string {
	return w.Start.Format(v1.DateLayout) + ".." + w.End.Format(v1.DateLayout)
}

// MarshalJSON writes both bounds as YYYY-MM-DD.
func (w Window) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"start": w.Start.Format(v1.DateLayout),
		"end":   w.End.Format(v1.DateLayout),
	})
}
