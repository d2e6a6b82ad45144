package models

import "time"

const (
	WellTypeDug     = "dug-well"
	WellTypeDrilled = "drilled-well"
)

// Borewell survives the deletion of its owner; CustomerID is cleared instead.
type Borewell struct {
	ID               uint      `gorm:"primaryKey"`
	CustomerID       *uint     `gorm:"index"`
	Customer         *Customer `gorm:"constraint:OnDelete:SET NULL"`
	Latitude         string    `gorm:"size:100;not null"`
	Longitude        string    `gorm:"size:100;not null"`
	WellType         string    `gorm:"size:100;index"`
	DepthType        string    `gorm:"size:100"`
	WallType         string    `gorm:"size:100"`
	SupplySystem     string    `gorm:"size:100"`
	ExactDepth       int       `gorm:"not null;default:0"`
	MotorOperated    bool      `gorm:"not null;default:false"`
	AuthoritiesAware bool      `gorm:"not null;default:false"`
	Description      string    `gorm:"size:500"`
	CreatedAt        time.Time
}
