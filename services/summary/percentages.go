package summary

import (
	"github.com/shopspring/decimal"

	"github.com/customeros/dmarc-summaries/internal/models"
)

var hundred = decimal.NewFromInt(100)

// CalculatePercentages returns each category's share of all messages, in
// percent rounded to one decimal place, and the total message count.
// An empty bucket yields zero percentages.
func CalculatePercentages(totals models.CategoryTotals) (models.CategoryPercentages, int) {
	total := clamp(totals.Pass) + clamp(totals.Fail) + clamp(totals.PassDkimOnly) + clamp(totals.PassSpfOnly)

	return models.CategoryPercentages{
		Pass:         percentage(totals.Pass, total),
		Fail:         percentage(totals.Fail, total),
		PassDkimOnly: percentage(totals.PassDkimOnly, total),
		PassSpfOnly:  percentage(totals.PassSpfOnly, total),
	}, total
}

func percentage(count, total int) float64 {
	if count <= 0 {
		return 0
	}
	value, _ := decimal.NewFromInt(int64(count)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(hundred).
		Round(1).
		Float64()
	return value
}

func clamp(count int) int {
	if count < 0 {
		return 0
	}
	return count
}
