package model

import (
	"time"

	"gorm.io/gorm"
)

// Farm is the tenant aggregate root: it owns its users and sensor zones
// and all data access is scoped to one farm.
type Farm struct {
	ID      uint    `json:"id" gorm:"primaryKey"`
	Name    string  `json:"name" gorm:"type:varchar(100);index;not null"`
	TaxID   string  `json:"tax_id" gorm:"type:varchar(30);uniqueIndex;not null"`
	Address string  `json:"address" gorm:"type:varchar(255)"`
	LogoURL *string `json:"logo_url,omitempty" gorm:"type:varchar(255)"`
	// Polygon holds the farm boundary as a serialized list of lat/lng pairs,
	// exactly as the map client sends it.
	Polygon   *string        `json:"polygon,omitempty" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations. Deleting a farm cascades to its users and zones.
	Users []User       `json:"-" gorm:"foreignKey:FarmID;constraint:OnDelete:CASCADE"`
	Zones []SensorZone `json:"-" gorm:"foreignKey:FarmID;constraint:OnDelete:CASCADE"`
}
