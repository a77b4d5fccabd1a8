package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Record is one committed ledger event as stored in the audit trail.
type Record struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Sequence   uint64    `gorm:"uniqueIndex"`
	Type       string    `gorm:"size:64;index"`
	PlanID     *uint64   `gorm:"index"`
	Account    string    `gorm:"size:96;index"`
	Asset      string    `gorm:"size:16"`
	Amount     string    `gorm:"size:80"`
	Attributes string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"index"`
}

// TableName pins the table so renames of the Go type do not move data.
func (Record) TableName() string { return "ledger_events" }

// AutoMigrate creates or updates the audit schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Record{})
}
