package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"agrointel-service/internal/middleware"
	"agrointel-service/internal/model"
	"agrointel-service/pkg/database"
	"agrointel-service/pkg/logger"
	"agrointel-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// zoneRequest is the zone payload for create and update. Update has full
// replace semantics; missing telemetry fields fall back to dashboard
// defaults on create.
type zoneRequest struct {
	Name         string  `json:"name"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	Crop         string  `json:"crop"`
	Moisture     *int    `json:"moisture"`
	Temp         *int    `json:"temp"`
	RainForecast *string `json:"rainForecast"`
	Battery      *int    `json:"battery"`
	Signal       *string `json:"signal"`
	LastUpdate   *string `json:"lastUpdate"`
	AIMode       bool    `json:"aiMode"`
	PumpOn       bool    `json:"pumpOn"`
	TankLevel    *int    `json:"tankLevel"`
}

func (r *zoneRequest) apply(zone *model.SensorZone) {
	zone.Name = r.Name
	zone.Lat = r.Lat
	zone.Lng = r.Lng

	zone.Type = r.Type
	if zone.Type == "" {
		zone.Type = model.ZoneTypeSensor
	}
	zone.Status = r.Status
	if zone.Status == "" {
		zone.Status = model.ZoneStatusOptimal
	}

	zone.Crop = r.Crop
	zone.Moisture = intOr(r.Moisture, 50)
	zone.Temp = intOr(r.Temp, 25)
	zone.RainForecast = stringOr(r.RainForecast, "no data")
	zone.Battery = intOr(r.Battery, 100)
	zone.Signal = stringOr(r.Signal, "N/A")
	zone.LastUpdate = stringOr(r.LastUpdate, "now")
	zone.AIMode = r.AIMode
	zone.PumpOn = r.PumpOn
	zone.TankLevel = r.TankLevel
}

// UpdatePolygon sets the farm boundary. The farm row is lazily
// provisioned here: a freshly registered token can reference a farm id
// with no farm row yet, and the first boundary write creates it.
func UpdatePolygon(c echo.Context) error {
	log := logger.FromContext(c)

	farmID, ok := middleware.CurrentFarmID(c)
	if !ok {
		log.Error("Failed to get farm id from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Polygon string `json:"polygon"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse polygon request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	var farm model.Farm
	result := tx.First(&farm, farmID)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			tx.Rollback()
			log.Error("Failed to load farm", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}

		// The placeholder tax id keeps the global uniqueness invariant
		// intact until the owner fills in real details.
		farm = model.Farm{
			ID:    farmID,
			Name:  "Fazenda",
			TaxID: fmt.Sprintf("PENDING-%d", farmID),
		}
		if result := tx.Create(&farm); result.Error != nil {
			tx.Rollback()
			log.Error("Failed to provision farm", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	farm.Polygon = &req.Polygon
	if result := tx.Save(&farm); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to update polygon", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit polygon update", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	log.Info("Farm boundary updated", zap.Uint("farm_id", farmID))
	return c.JSON(http.StatusOK, echo.Map{"message": "farm boundary updated"})
}

// ListZones returns every zone owned by the caller's farm. A farm
// without zones gets an empty list, not an error.
func ListZones(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordZoneOperation("list")

	farmID, ok := middleware.CurrentFarmID(c)
	if !ok {
		log.Error("Failed to get farm id from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	zones := []model.SensorZone{}
	if result := database.GetDB().Where("farm_id = ?", farmID).Order("id").Find(&zones); result.Error != nil {
		log.Error("Failed to list zones", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve zones"})
	}

	return c.JSON(http.StatusOK, zones)
}

// CreateZone persists a new zone for the caller's farm. The owning farm
// id always comes from the token, never from the payload.
func CreateZone(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordZoneOperation("create")

	farmID, ok := middleware.CurrentFarmID(c)
	if !ok {
		log.Error("Failed to get farm id from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req zoneRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse zone request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	zone := model.SensorZone{FarmID: farmID}
	req.apply(&zone)

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&zone); result.Error != nil {
		log.Error("Failed to create zone", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create zone"})
	}

	log.Info("Zone created",
		zap.Uint("zone_id", zone.ID),
		zap.Uint("farm_id", farmID),
		zap.String("name", zone.Name))
	return c.JSON(http.StatusCreated, zone)
}

// UpdateZone replaces a zone's attributes. A zone that does not exist
// and a zone owned by another farm produce the same 404.
func UpdateZone(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordZoneOperation("update")

	farmID, ok := middleware.CurrentFarmID(c)
	if !ok {
		log.Error("Failed to get farm id from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	zoneID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid zone id"})
	}

	var req zoneRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse zone request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	zone, err := zoneByID(farmID, zoneID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "zone not found"})
		}
		log.Error("Failed to load zone", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	req.apply(zone)
	if result := database.GetDB().Save(zone); result.Error != nil {
		log.Error("Failed to update zone", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update zone"})
	}

	return c.JSON(http.StatusOK, zone)
}

// DeleteZone removes a zone. Same not-found semantics as UpdateZone.
func DeleteZone(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordZoneOperation("delete")

	farmID, ok := middleware.CurrentFarmID(c)
	if !ok {
		log.Error("Failed to get farm id from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	zoneID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid zone id"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	zone, err := zoneByID(farmID, zoneID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "zone not found"})
		}
		log.Error("Failed to load zone", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if result := database.GetDB().Delete(zone); result.Error != nil {
		log.Error("Failed to delete zone", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete zone"})
	}

	log.Info("Zone deleted", zap.Uint("zone_id", zone.ID), zap.Uint("farm_id", farmID))
	return c.JSON(http.StatusOK, echo.Map{"message": "zone removed"})
}

// zoneByID loads a zone scoped to one farm. A zone that does not exist
// and a zone owned by another farm both come back as ErrNotFound, so
// callers cannot tell the two apart.
func zoneByID(farmID uint, zoneID uint64) (*model.SensorZone, error) {
	var zone model.SensorZone
	result := database.GetDB().Where("id = ? AND farm_id = ?", zoneID, farmID).First(&zone)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: zone %d", model.ErrNotFound, zoneID)
		}
		return nil, result.Error
	}
	return &zone, nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}
