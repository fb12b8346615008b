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

var contractTypeSortColumns = []string{"created_at", "name", "updated_at"}

// ListContractTypes returns a page of contract types with name search and
// sorting.
func ListContractTypes(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract_type", "list")

	params := query.ParseList(c.QueryParams(), contractTypeSortColumns)

	db := database.GetDB().Model(&model.ContractType{})
	if params.Search != "" {
		db = db.Where("name ILIKE ?", "%"+params.Search+"%")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	if err := db.Count(&total).Error; err != nil {
		log.Error("Failed to count contract types", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve contract types"})
	}

	var contractTypes []model.ContractType
	err := db.Order(params.Order()).
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&contractTypes).Error
	if err != nil {
		log.Error("Failed to retrieve contract types", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve contract types"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": contractTypes,
		"meta": query.NewMeta(total, params),
	})
}

// GetContractType returns a single contract type by ID.
func GetContractType(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract_type", "get")

	defer prometheus.TrackDBOperation("query")(time.Now())

	var contractType model.ContractType
	if err := database.GetDB().First(&contractType, "id = ?", c.Param("id")).Error; err != nil {
		log.Warn("Contract type not found", zap.String("contract_type_id", c.Param("id")))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contract type not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"data": contractType})
}

// CreateContractType inserts a new contract type.
func CreateContractType(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract_type", "create")

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

	contractType := model.ContractType{
		Name:      req.Name,
		CreatedBy: req.CreatedBy,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&contractType).Error; err != nil {
		log.Error("Failed to create contract type", zap.String("name", req.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create contract type"})
	}

	log.Info("Contract type created", zap.Uint("contract_type_id", contractType.ID), zap.String("name", contractType.Name))
	return c.JSON(http.StatusCreated, echo.Map{"data": contractType})
}

// UpdateContractType applies a partial update and stamps updated_at.
func UpdateContractType(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract_type", "update")

	id := c.Param("id")

	var req struct {
		Name *string `json:"name"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("contract_type_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}

	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	var contractType model.ContractType
	if err := database.GetDB().First(&contractType, "id = ?", id).Error; err != nil {
		log.Warn("Contract type not found for update", zap.String("contract_type_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contract type not found"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&contractType).Updates(updates).Error; err != nil {
		log.Error("Failed to update contract type", zap.String("contract_type_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update contract type"})
	}

	log.Info("Contract type updated", zap.String("contract_type_id", id))
	return c.JSON(http.StatusOK, echo.Map{"data": contractType})
}

// DeleteContractType soft-deletes a contract type. Contracts referencing it
// keep their contract_type_id.
func DeleteContractType(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract_type", "delete")

	id := c.Param("id")

	var contractType model.ContractType
	if err := database.GetDB().First(&contractType, "id = ?", id).Error; err != nil {
		log.Warn("Contract type not found for delete", zap.String("contract_type_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contract type not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&contractType).Error; err != nil {
		log.Error("Failed to delete contract type", zap.String("contract_type_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete contract type"})
	}

	log.Info("Contract type soft-deleted", zap.String("contract_type_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "contract type deleted successfully"})
}
