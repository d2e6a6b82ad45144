package models

import "time"

type Customer struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:100;not null"`
	Address      string `gorm:"size:200;not null"`
	Email        string `gorm:"size:254;uniqueIndex;not null"`
	PhoneNumber  string `gorm:"size:32;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`
	CreatedAt    time.Time
}
