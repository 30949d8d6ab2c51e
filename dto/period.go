package dto

// Period is the set of monthly buckets expected for the current run.
type Period struct {
	// StartDates holds the expected month labels, oldest first.
	StartDates []string
	// CurrentDate is the label of the month still accumulating reports.
	CurrentDate string
}
