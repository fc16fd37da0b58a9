package models

import (
	"time"

	"spendlens/internal/uuid"

	"gorm.io/gorm"
)

// Base holds the identity and bookkeeping columns shared by stored records.
// All of its instants are UTC.
type Base struct {
	ID        string         `gorm:"type:varchar(64);primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Stamp assigns a UUIDv7 when the record has no id yet and fills missing
// creation times with now in UTC.
func (b *Base) Stamp(now time.Time) {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	now = now.UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
}

// BeforeCreate stamps new rows before gorm inserts them.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	b.Stamp(time.Now())
	return nil
}
