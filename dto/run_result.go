package dto

import "time"

type DomainFailure struct {
	Organization string `json:"organization"`
	Domain       string `json:"domain"`
	Error        string `json:"error"`
}

// RunResult counts what one reconciliation run did.
type RunResult struct {
	RunID                 string          `json:"runId"`
	StartedAt             time.Time       `json:"startedAt"`
	FinishedAt            time.Time       `json:"finishedAt"`
	OrganizationsSeen     int             `json:"organizationsSeen"`
	OrganizationsSkipped  int             `json:"organizationsSkipped"`
	DomainsProcessed      int             `json:"domainsProcessed"`
	DomainsSkipped        int             `json:"domainsSkipped"`
	OwnershipsCreated     int             `json:"ownershipsCreated"`
	OwnershipsTransferred int             `json:"ownershipsTransferred"`
	SummariesCreated      int             `json:"summariesCreated"`
	SummariesUpserted     int             `json:"summariesUpserted"`
	SummariesRemoved      int             `json:"summariesRemoved"`
	EventsPublished       int             `json:"eventsPublished"`
	Failed                []DomainFailure `json:"failed,omitempty"`
}

func (r *RunResult) DomainsFailed() int {
	return len(r.Failed)
}
