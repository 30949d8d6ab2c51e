package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ownership is the organization -> domain edge. A domain has at most one.
type Ownership struct {
	ID        string    `gorm:"primary_key;type:uuid" json:"id"`
	FromID    string    `gorm:"column:from_id;type:uuid;NOT NULL;index:idx_ownership_from" json:"from"`
	ToID      string    `gorm:"column:to_id;type:uuid;NOT NULL;index:idx_ownership_to" json:"to"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp" json:"createdAt"`
}

func (Ownership) TableName() string {
	return "ownership"
}

func (o *Ownership) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// DomainToDMARCSummary links a domain to the summary of one bucket.
type DomainToDMARCSummary struct {
	ID        string    `gorm:"primary_key;type:uuid" json:"id"`
	FromID    string    `gorm:"column:from_id;type:uuid;NOT NULL;uniqueIndex:idx_domain_summary_bucket,priority:1" json:"from"`
	ToID      string    `gorm:"column:to_id;type:uuid;NOT NULL;index:idx_domain_summary_to" json:"to"`
	StartDate string    `gorm:"column:start_date;type:varchar(16);NOT NULL;uniqueIndex:idx_domain_summary_bucket,priority:2" json:"startDate"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp" json:"createdAt"`
}

func (DomainToDMARCSummary) TableName() string {
	return "domains_to_dmarc_summaries"
}

func (e *DomainToDMARCSummary) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
