package models

import "time"

// Session is the server-side half of a login; the browser only holds Token.
type Session struct {
	Token      string    `gorm:"primaryKey;size:64"`
	CustomerID uint      `gorm:"index;not null"`
	ExpiresAt  time.Time `gorm:"index;not null"`
	CreatedAt  time.Time
}
