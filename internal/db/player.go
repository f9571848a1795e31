package db

import "time"

type Player struct {
	ID                string `gorm:"primaryKey;size:36"`
	RoomID            string `gorm:"size:36;index;not null"`
	Nickname          string `gorm:"size:64;not null"`
	Avatar            string `gorm:"size:8;not null;default:'1'"`
	TotalVotes        int    `gorm:"not null;default:0"`
	HandReloadedRound *int
	JoinedAt          time.Time `gorm:"index;not null"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
	Hand              []HandCard
}
