package db

import (
	"time"

	"gorm.io/datatypes"
)

type Submission struct {
	ID            string         `gorm:"primaryKey;size:36"`
	RoomID        string         `gorm:"size:36;index;not null;uniqueIndex:idx_submissions_room_player_round"`
	PlayerID      string         `gorm:"size:36;not null;uniqueIndex:idx_submissions_room_player_round"`
	RoundNumber   int            `gorm:"not null;uniqueIndex:idx_submissions_room_player_round"`
	Card1ID       string         `gorm:"size:36;not null"`
	Card2ID       string         `gorm:"size:36;not null"`
	FreeWord      string         `gorm:"size:64;not null"`
	WordOrder     datatypes.JSON `gorm:"type:jsonb;not null"`
	VotesReceived int            `gorm:"not null;default:0"`
	CreatedAt     time.Time      `gorm:"index;not null"`
}
