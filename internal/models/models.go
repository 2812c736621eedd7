package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultAvatar is used for users that signed in without a profile picture
const DefaultAvatar = "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=50&h=50&fit=crop&crop=face"

// User is the signed-in identity as displayed by the app and persisted with the session
type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// SessionEntry is a single key/value pair of the persisted session (sqlite backend)
type SessionEntry struct {
	Name      string    `gorm:"primaryKey;type:varchar(64)"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&SessionEntry{},
	}

	return db.AutoMigrate(models...)
}
