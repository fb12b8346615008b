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

var serviceSortColumns = []string{"created_at", "name", "updated_at"}

// ListServices returns a page of services with name search, a
// service_type_id filter and sorting.
func ListServices(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("service", "list")

	params := query.ParseList(c.QueryParams(), serviceSortColumns)

	db := database.GetDB().Model(&model.Service{})
	if params.Search != "" {
		db = db.Where("name ILIKE ?", "%"+params.Search+"%")
	}
	if serviceTypeID := c.QueryParam("service_type_id"); serviceTypeID != "" {
		db = db.Where("service_type_id = ?", serviceTypeID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	if err := db.Count(&total).Error; err != nil {
		log.Error("Failed to count services", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve services"})
	}

	var services []model.Service
	err := db.Order(params.Order()).
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&services).Error
	if err != nil {
		log.Error("Failed to retrieve services", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve services"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": services,
		"meta": query.NewMeta(total, params),
	})
}

// GetService returns a single service by ID.
func GetService(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("service", "get")

	defer prometheus.TrackDBOperation("query")(time.Now())

	var service model.Service
	if err := database.GetDB().First(&service, "id = ?", c.Param("id")).Error; err != nil {
		log.Warn("Service not found", zap.String("service_id", c.Param("id")))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"data": service})
}

// CreateService inserts a new service.
func CreateService(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("service", "create")

	var req struct {
		Name          string  `json:"name"`
		ServiceTypeID *uint   `json:"service_type_id"`
		CreatedBy     *string `json:"created_by"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	service := model.Service{
		Name:          req.Name,
		ServiceTypeID: req.ServiceTypeID,
		CreatedBy:     req.CreatedBy,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&service).Error; err != nil {
		log.Error("Failed to create service", zap.String("name", req.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create service"})
	}

	log.Info("Service created", zap.Uint("service_id", service.ID), zap.String("name", service.Name))
	return c.JSON(http.StatusCreated, echo.Map{"data": service})
}

// UpdateService applies a partial update and stamps updated_at.
func UpdateService(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("service", "update")

	id := c.Param("id")

	var req struct {
		Name          *string `json:"name"`
		ServiceTypeID *uint   `json:"service_type_id"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("service_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.ServiceTypeID != nil {
		updates["service_type_id"] = *req.ServiceTypeID
	}

	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	var service model.Service
	if err := database.GetDB().First(&service, "id = ?", id).Error; err != nil {
		log.Warn("Service not found for update", zap.String("service_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&service).Updates(updates).Error; err != nil {
		log.Error("Failed to update service", zap.String("service_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update service"})
	}

	log.Info("Service updated", zap.String("service_id", id))
	return c.JSON(http.StatusOK, echo.Map{"data": service})
}

// DeleteService soft-deletes a service.
func DeleteService(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("service", "delete")

	id := c.Param("id")

	var service model.Service
	if err := database.GetDB().First(&service, "id = ?", id).Error; err != nil {
		log.Warn("Service not found for delete", zap.String("service_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&service).Error; err != nil {
		log.Error("Failed to delete service", zap.String("service_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete service"})
	}

	log.Info("Service soft-deleted", zap.String("service_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "service deleted successfully"})
}
