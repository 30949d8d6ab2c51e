package enum

const (
	// ThirtyDays labels the rolling thirty day summary of a domain.
	ThirtyDays = "thirtyDays"
	// ThirtyDaysExternal is the same bucket as named in the report store.
	ThirtyDaysExternal = "thirty_days"
)

type DetailTable string

const (
	DetailTableDkimFailure  DetailTable = "dkim_failure"
	DetailTableDmarcFailure DetailTable = "dmarc_failure"
	DetailTableFullPass     DetailTable = "full_pass"
	DetailTableSpfFailure   DetailTable = "spf_failure"
)

func (t DetailTable) String() string {
	return string(t)
}
