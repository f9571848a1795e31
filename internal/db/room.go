package db

import "time"

type Room struct {
	ID                  string  `gorm:"primaryKey;size:36"`
	Code                string  `gorm:"size:6;uniqueIndex;not null"`
	HostID              string  `gorm:"size:36;not null;default:''"`
	Status              string  `gorm:"size:32;index;not null"`
	MaxPlayers          int     `gorm:"not null"`
	TotalRounds         int     `gorm:"not null"`
	CurrentRound        int     `gorm:"not null;default:0"`
	CurrentThemeID      *string `gorm:"size:36"`
	RoundEndTime        *time.Time
	CurrentViewingIndex int       `gorm:"not null;default:0"`
	ShowAllSubmissions  bool      `gorm:"not null;default:false"`
	PhaseStartedAt      time.Time `gorm:"not null"`
	Version             int       `gorm:"not null;default:1"`
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
	Players             []Player
	Events              []Event
}
