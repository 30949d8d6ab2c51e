package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryTotals struct {
	Pass         int `json:"pass"`
	Fail         int `json:"fail"`
	PassDkimOnly int `json:"passDkimOnly"`
	PassSpfOnly  int `json:"passSpfOnly"`
}

func (c CategoryTotals) Sum() int {
	return c.Pass + c.Fail + c.PassDkimOnly + c.PassSpfOnly
}

// AnyPass reports whether a message passed DMARC through any mechanism.
func (c CategoryTotals) AnyPass() bool {
	return c.Pass > 0 || c.PassDkimOnly > 0 || c.PassSpfOnly > 0
}

type CategoryPercentages struct {
	Pass         float64 `json:"pass"`
	Fail         float64 `json:"fail"`
	PassDkimOnly float64 `json:"passDkimOnly"`
	PassSpfOnly  float64 `json:"passSpfOnly"`
}

// DetailRow is one source of mail as listed in a detail table.
type DetailRow struct {
	ID              string `json:"id"`
	SourceIPAddress string `json:"sourceIpAddress"`
	EnvelopeFrom    string `json:"envelopeFrom,omitempty"`
	HeaderFrom      string `json:"headerFrom,omitempty"`
	DNSHost         string `json:"dnsHost,omitempty"`
	SPFDomains      string `json:"spfDomains,omitempty"`
	SPFResults      string `json:"spfResults,omitempty"`
	SPFAligned      *bool  `json:"spfAligned,omitempty"`
	DKIMDomains     string `json:"dkimDomains,omitempty"`
	DKIMSelectors   string `json:"dkimSelectors,omitempty"`
	DKIMResults     string `json:"dkimResults,omitempty"`
	DKIMAligned     *bool  `json:"dkimAligned,omitempty"`
	Disposition     string `json:"disposition,omitempty"`
	TotalMessages   int    `json:"totalMessages"`
	Guidance        string `json:"guidance,omitempty"`
}

type DetailTables struct {
	DkimFailure  []DetailRow `json:"dkimFailure"`
	DmarcFailure []DetailRow `json:"dmarcFailure"`
	FullPass     []DetailRow `json:"fullPass"`
	SpfFailure   []DetailRow `json:"spfFailure"`
}

// SummaryData is the payload written to a summary document.
type SummaryData struct {
	CategoryTotals      CategoryTotals      `json:"categoryTotals"`
	CategoryPercentages CategoryPercentages `json:"categoryPercentages"`
	TotalMessages       int                 `json:"totalMessages"`
	DetailTables        DetailTables        `json:"detailTables"`
}

type DMARCSummary struct {
	ID                  string              `gorm:"primary_key;type:uuid" json:"id"`
	CategoryTotals      CategoryTotals      `gorm:"column:category_totals;type:jsonb;serializer:json" json:"categoryTotals"`
	CategoryPercentages CategoryPercentages `gorm:"column:category_percentages;type:jsonb;serializer:json" json:"categoryPercentages"`
	DetailTables        DetailTables        `gorm:"column:detail_tables;type:jsonb;serializer:json" json:"detailTables"`
	TotalMessages       int                 `gorm:"column:total_messages;type:integer;NOT NULL;DEFAULT:0" json:"totalMessages"`
	CreatedAt           time.Time           `gorm:"column:created_at;type:timestamp" json:"createdAt"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;type:timestamp" json:"updatedAt"`
}

func (DMARCSummary) TableName() string {
	return "dmarc_summaries"
}

func (s *DMARCSummary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func NewDMARCSummary(data SummaryData) *DMARCSummary {
	return &DMARCSummary{
		CategoryTotals:      data.CategoryTotals,
		CategoryPercentages: data.CategoryPercentages,
		DetailTables:        data.DetailTables,
		TotalMessages:       data.TotalMessages,
	}
}

func (s *DMARCSummary) Data() SummaryData {
	return SummaryData{
		CategoryTotals:      s.CategoryTotals,
		CategoryPercentages: s.CategoryPercentages,
		TotalMessages:       s.TotalMessages,
		DetailTables:        s.DetailTables,
	}
}
