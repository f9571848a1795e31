package db

import "time"

type WordCard struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Word      string    `gorm:"size:64;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type Theme struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Name        string    `gorm:"size:128;uniqueIndex;not null"`
	Description string    `gorm:"size:280;not null;default:''"`
	CreatedAt   time.Time `gorm:"not null"`
}
