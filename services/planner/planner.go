package planner

import (
	"time"

	"github.com/customeros/dmarc-summaries/dto"
	"github.com/customeros/dmarc-summaries/internal/utils"
)

type Planner struct {
	months int
	now    func() time.Time
}

// NewPlanner plans periods of the given number of months ending at the
// current month. A nil clock defaults to utils.Now.
func NewPlanner(months int, now func() time.Time) *Planner {
	if now == nil {
		now = utils.Now
	}
	return &Planner{
		months: months,
		now:    now,
	}
}

// Plan returns the expected monthly buckets, oldest first, and the label of
// the current month.
func (p *Planner) Plan() (dto.Period, error) {
	current := utils.MonthStart(p.now())
	start := current.AddDate(0, 1-p.months, 0)

	dates, err := utils.LoadDates(start.Format(utils.DateLayout), p.months)
	if err != nil {
		return dto.Period{}, err
	}
	return dto.Period{
		StartDates:  dates,
		CurrentDate: current.Format(utils.DateLayout),
	}, nil
}
