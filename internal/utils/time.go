package utils

import "time"

const DateLayout = "2006-01-02"

func Now() time.Time {
	return time.Now().UTC()
}

// MonthStart truncates t to midnight UTC of the first day of its month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
