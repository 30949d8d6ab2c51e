package dto

type Event struct {
	Event    EventDetails  `json:"event"`
	Metadata EventMetadata `json:"metadata"`
}

type EventDetails struct {
	Id        string      `json:"id"`
	EntityId  string      `json:"entityId"`
	EventType string      `json:"eventType"`
	Data      interface{} `json:"data"`
}

type EventMetadata struct {
	UberTraceId string `json:"uber-trace-id"`
	AppSource   string `json:"appSource"`
	Timestamp   string `json:"timestamp"`
}

const EventTypeSummariesReconciled = "DMARC_SUMMARIES_RECONCILED"

// SummariesReconciled is published once per domain whose stored state changed.
type SummariesReconciled struct {
	RunID            string   `json:"runId"`
	Organization     string   `json:"organization"`
	Domain           string   `json:"domain"`
	OwnershipChanged bool     `json:"ownershipChanged"`
	Created          []string `json:"created,omitempty"`
	Upserted         []string `json:"upserted,omitempty"`
	Removed          []string `json:"removed,omitempty"`
	SendsEmail       string   `json:"sendsEmail,omitempty"`
}

func (e SummariesReconciled) Changed() bool {
	return e.OwnershipChanged || len(e.Created) > 0 || len(e.Upserted) > 0 || len(e.Removed) > 0
}
