package models

import "time"

// ModelRegistry lists every model the database resolver keeps in sync with the schema.
var ModelRegistry = []interface{}{
	&WaitlistEntry{},
}

// WaitlistEntry is one row of the waitlist table.
type WaitlistEntry struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist"
}
