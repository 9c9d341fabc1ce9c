package models

import (
	"time"
)

// Document is one record of a named collection. Seq carries the
// collection's native insertion order; ID is the caller-visible key.
type Document struct {
	Seq        uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	ID         string `gorm:"uniqueIndex;not null"     json:"id"`
	Collection string `gorm:"index;not null"           json:"-"`
	Data       []byte `gorm:"not null"                 json:"-"`
}

type Account struct {
	ID           string    `gorm:"primaryKey"           json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:""                     json:"-"`
	DisplayName  string    `gorm:""                     json:"display_name"`
	Provider     string    `gorm:"not null"             json:"provider"`
	CreatedAt    time.Time `json:"created_at"`
}

type PasswordReset struct {
	Token     string    `gorm:"primaryKey"     json:"token"`
	AccountID string    `gorm:"index;not null" json:"account_id"`
	ExpiresAt time.Time `gorm:"not null"       json:"expires_at"`
	Used      bool      `gorm:"default:false"  json:"used"`
}
