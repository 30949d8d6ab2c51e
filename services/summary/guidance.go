package summary

var guidanceCodes = map[string]string{
	"agg-spf-no-record":         "agg1",
	"agg-spf-failed":            "agg2",
	"agg-spf-not-aligned":       "agg3",
	"agg-spf-softfail":          "agg4",
	"agg-spf-too-many-lookups":  "agg5",
	"agg-dkim-no-record":        "agg6",
	"agg-dkim-failed":           "agg7",
	"agg-dkim-not-aligned":      "agg8",
	"agg-dkim-selector-missing": "agg9",
	"agg-dkim-strict":           "agg10",
}

// MapGuidance translates a remediation code from the report store into the
// code published to consumers. Unknown codes pass through unchanged.
func MapGuidance(guidance string) string {
	if mapped, ok := guidanceCodes[guidance]; ok {
		return mapped
	}
	return guidance
}
