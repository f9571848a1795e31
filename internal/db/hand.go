package db

import "time"

// HandCard is one card held by one player.
type HandCard struct {
	ID         uint      `gorm:"primaryKey"`
	PlayerID   string    `gorm:"size:36;index;not null;uniqueIndex:idx_player_hands_player_card"`
	WordCardID string    `gorm:"size:36;not null;uniqueIndex:idx_player_hands_player_card"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (HandCard) TableName() string {
	return "player_hands"
}
