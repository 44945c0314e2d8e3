package models

import (
	"time"

	"gorm.io/gorm"
)

// Base is the base model for all entities. Primary keys are auto-increment
// integers; rows are soft-deleted.
type Base struct {
	ID        int64          `json:"id"       gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time      `json:"create_time"`
	UpdatedAt time.Time      `json:"update_time"`
	DeletedAt gorm.DeletedAt `json:"-"        gorm:"index"`
}
