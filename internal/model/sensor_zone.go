package model

import (
	"time"

	"gorm.io/gorm"
)

// Sensor zone kinds and statuses as the dashboard knows them.
const (
	ZoneTypeSensor = "sensor"
	ZoneTypeTank   = "tank"

	ZoneStatusOptimal    = "optimal"
	ZoneStatusAttention  = "attention"
	ZoneStatusCritical   = "critical"
	ZoneStatusIrrigating = "irrigating"
)

// SensorZone is a named location with telemetry, owned by exactly one farm.
// Telemetry fields are reported by the field hardware; until real sensors
// are wired up the dashboard fills them in.
type SensorZone struct {
	ID     uint    `json:"id" gorm:"primaryKey"`
	FarmID uint    `json:"farm_id" gorm:"index;not null"`
	Name   string  `json:"name" gorm:"type:varchar(100);not null"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Type   string  `json:"type" gorm:"type:varchar(20);default:'sensor'"`
	Status string  `json:"status" gorm:"type:varchar(20);default:'optimal'"`

	Crop         string `json:"crop" gorm:"type:varchar(100)"`
	Moisture     int    `json:"moisture"`
	Temp         int    `json:"temp"`
	RainForecast string `json:"rainForecast" gorm:"column:rain_forecast;type:varchar(100)"`
	Battery      int    `json:"battery"`
	Signal       string `json:"signal" gorm:"type:varchar(20)"`
	LastUpdate   string `json:"lastUpdate" gorm:"column:last_update;type:varchar(50)"`
	AIMode       bool   `json:"aiMode" gorm:"column:ai_mode"`
	PumpOn       bool   `json:"pumpOn" gorm:"column:pump_on"`
	TankLevel    *int   `json:"tankLevel,omitempty" gorm:"column:tank_level"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
