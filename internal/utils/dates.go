package utils

import (
	"fmt"
	"regexp"
	"time"

	"github.com/pkg/errors"

	er "github.com/customeros/dmarc-summaries/internal/errors"
)

// PeriodMonths is the number of monthly buckets tracked per domain.
const PeriodMonths = 13

var startDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// LoadDates returns the first day of each of the months consecutive calendar
// months, starting at the month of startDate, formatted YYYY-MM-DD.
func LoadDates(startDate string, months int) ([]string, error) {
	if !startDatePattern.MatchString(startDate) {
		return nil, er.Validation("LoadDates", errors.Wrapf(er.ErrInvalidStartDate, "%q does not match YYYY-MM-DD", startDate))
	}
	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return nil, er.Validation("LoadDates", errors.Wrapf(er.ErrInvalidStartDate, "%q is not a calendar date", startDate))
	}
	if months < 1 {
		return nil, er.Validation("LoadDates", fmt.Errorf("month count must be positive, got %d", months))
	}

	start = MonthStart(start)
	dates := make([]string, 0, months)
	for i := 0; i < months; i++ {
		dates = append(dates, start.AddDate(0, i, 0).Format(DateLayout))
	}
	return dates, nil
}
