package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/customeros/dmarc-summaries/internal/enum"
)

type Domain struct {
	ID             string          `gorm:"primary_key;type:uuid" json:"id"`
	Domain         string          `gorm:"column:domain;type:varchar(255);NOT NULL;uniqueIndex:idx_domains_domain" json:"domain"`
	SendsEmail     enum.SendsEmail `gorm:"column:sends_email;type:varchar(16);NOT NULL;DEFAULT:'unknown'" json:"sendsEmail"`
	HasDMARCReport bool            `gorm:"column:has_dmarc_report;type:boolean;NOT NULL;DEFAULT:false" json:"hasDMARCReport"`
	CreatedAt      time.Time       `gorm:"column:created_at;type:timestamp" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;type:timestamp" json:"updatedAt"`
}

func (Domain) TableName() string {
	return "domains"
}

func (d *Domain) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.SendsEmail == "" {
		d.SendsEmail = enum.SendsEmailUnknown
	}
	return nil
}
