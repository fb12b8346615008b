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

var contractProgressSortColumns = []string{"created_at", "name", "updated_at"}

// ListContractProgresses returns a page of progress stages with name search
// and sorting.
func ListContractProgresses(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract_progress", "list")

	params := query.ParseList(c.QueryParams(), contractProgressSortColumns)

	db := database.GetDB().Model(&model.ContractProgress{})
	if params.Search != "" {
		db = db.Where("name ILIKE ?", "%"+params.Search+"%")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	if err := db.Count(&total).Error; err != nil {
		log.Error("Failed to count contract progresses", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve contract progresses"})
	}

	var progresses []model.ContractProgress
	err := db.Order(params.Order()).
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&progresses).Error
	if err != nil {
		log.Error("Failed to retrieve contract progresses", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve contract progresses"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": progresses,
		"meta": query.NewMeta(total, params),
	})
}

// GetContractProgress returns a single progress stage by ID.
func GetContractProgress(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract_progress", "get")

	defer prometheus.TrackDBOperation("query")(time.Now())

	var progress model.ContractProgress
	if err := database.GetDB().First(&progress, "id = ?", c.Param("id")).Error; err != nil {
		log.Warn("Contract progress not found", zap.String("contract_progress_id", c.Param("id")))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contract progress not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"data": progress})
}

// CreateContractProgress inserts a new progress stage.
func CreateContractProgress(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract_progress", "create")

	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	progress := model.ContractProgress{
		Name:        req.Name,
		Description: req.Description,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&progress).Error; err != nil {
		log.Error("Failed to create contract progress", zap.String("name", req.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create contract progress"})
	}

	log.Info("Contract progress created", zap.Uint("contract_progress_id", progress.ID), zap.String("name", progress.Name))
	return c.JSON(http.StatusCreated, echo.Map{"data": progress})
}

// UpdateContractProgress applies a partial update and stamps updated_at.
func UpdateContractProgress(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract_progress", "update")

	id := c.Param("id")

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("contract_progress_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	var progress model.ContractProgress
	if err := database.GetDB().First(&progress, "id = ?", id).Error; err != nil {
		log.Warn("Contract progress not found for update", zap.String("contract_progress_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contract progress not found"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&progress).Updates(updates).Error; err != nil {
		log.Error("Failed to update contract progress", zap.String("contract_progress_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update contract progress"})
	}

	log.Info("Contract progress updated", zap.String("contract_progress_id", id))
	return c.JSON(http.StatusOK, echo.Map{"data": progress})
}

// DeleteContractProgress removes a progress stage permanently. Progress
// stages are a small fixed vocabulary, so no soft-delete trail is kept.
func DeleteContractProgress(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract_progress", "delete")

	id := c.Param("id")

	var progress model.ContractProgress
	if err := database.GetDB().First(&progress, "id = ?", id).Error; err != nil {
		log.Warn("Contract progress not found for delete", zap.String("contract_progress_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contract progress not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&progress).Error; err != nil {
		log.Error("Failed to delete contract progress", zap.String("contract_progress_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete contract progress"})
	}

	log.Info("Contract progress deleted", zap.String("contract_progress_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "contract progress deleted successfully"})
}
