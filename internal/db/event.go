package db

import (
	"time"

	"gorm.io/datatypes"
)

type Event struct {
	ID          string         `gorm:"primaryKey;size:36"`
	RoomID      string         `gorm:"size:36;index;not null"`
	PlayerID    *string        `gorm:"size:36;index"`
	RoundNumber int            `gorm:"not null;default:0"`
	Type        string         `gorm:"size:64;not null"`
	Payload     datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt   time.Time      `gorm:"index;not null"`
}
