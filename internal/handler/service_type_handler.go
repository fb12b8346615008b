package handler

import (
	"net/http"
	"time"

	"github.com/mdyrsy/kalbar-cm/internal/model"
	"github.com/mdyrsy/kalbar-cm/internal/query"
	"github.com/mdyrsy/kalbar-cm/pkg/database"
	"github.com/mdyrsy/kalbar-cm/pkg/logger"
	"github.com/mdyrsy/kalbar-cm/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var serviceTypeSortColumns = []string{"created_at", "name", "updated_at"}

// ListServiceTypes returns a page of service types with name search and
// sorting.
func ListServiceTypes(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("service_type", "list")

	params := query.ParseList(c.QueryParams(), serviceTypeSortColumns)

	db := database.GetDB().Model(&model.ServiceType{})
	if params.Search != "" {
		db = db.Where("name ILIKE ?", "%"+params.Search+"%")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	if err := db.Count(&total).Error; err != nil {
		log.Error("Failed to count service types", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve service types"})
	}

	var serviceTypes []model.ServiceType
	err := db.Order(params.Order()).
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&serviceTypes).Error
	if err != nil {
		log.Error("Failed to retrieve service types", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve service types"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": serviceTypes,
		"meta": query.NewMeta(total, params),
	})
}

// GetServiceType returns a single service type by ID.
func GetServiceType(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("service_type", "get")

	defer prometheus.TrackDBOperation("query")(time.Now())

	var serviceType model.ServiceType
	if err := database.GetDB().First(&serviceType, "id = ?", c.Param("id")).Error; err != nil {
		log.Warn("Service type not found", zap.String("service_type_id", c.Param("id")))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service type not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"data": serviceType})
}

// CreateServiceType inserts a new service type.
func CreateServiceType(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("service_type", "create")

	var req struct {
		Name      string  `json:"name"`
		CreatedBy *string `json:"created_by"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	serviceType := model.ServiceType{
		Name:      req.Name,
		CreatedBy: req.CreatedBy,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&serviceType).Error; err != nil {
		log.Error("Failed to create service type", zap.String("name", req.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create service type"})
	}

	log.Info("Service type created", zap.Uint("service_type_id", serviceType.ID), zap.String("name", serviceType.Name))
	return c.JSON(http.StatusCreated, echo.Map{"data": serviceType})
}

// UpdateServiceType applies a partial update and stamps updated_at.
func UpdateServiceType(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("service_type", "update")

	id := c.Param("id")

	var req struct {
		Name *string `json:"name"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("service_type_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}

	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	var serviceType model.ServiceType
	if err := database.GetDB().First(&serviceType, "id = ?", id).Error; err != nil {
		log.Warn("Service type not found for update", zap.String("service_type_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service type not found"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&serviceType).Updates(updates).Error; err != nil {
		log.Error("Failed to update service type", zap.String("service_type_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update service type"})
	}

	log.Info("Service type updated", zap.String("service_type_id", id))
	return c.JSON(http.StatusOK, echo.Map{"data": serviceType})
}

// DeleteServiceType soft-deletes a service type. Services referencing it
// keep their service_type_id.
func DeleteServiceType(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("service_type", "delete")

	id := c.Param("id")

	var serviceType model.ServiceType
	if err := database.GetDB().First(&serviceType, "id = ?", id).Error; err != nil {
		log.Warn("Service type not found for delete", zap.String("service_type_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service type not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&serviceType).Error; err != nil {
		log.Error("Failed to delete service type", zap.String("service_type_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete service type"})
	}

	log.Info("Service type soft-deleted", zap.String("service_type_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "service type deleted successfully"})
}
