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

var contractLinkSortColumns = []string{"created_at", "label"}

// ListContractLinks returns a page of document links, optionally scoped to
// one contract via the contract_id query parameter.
func ListContractLinks(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract_link", "list")

	params := query.ParseList(c.QueryParams(), contractLinkSortColumns)

	db := database.GetDB().Model(&model.ContractLink{})
	if contractID := c.QueryParam("contract_id"); contractID != "" {
		db = db.Where("contract_id = ?", contractID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	if err := db.Count(&total).Error; err != nil {
		log.Error("Failed to count contract links", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve contract links"})
	}

	var links []model.ContractLink
	err := db.Order(params.Order()).
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&links).Error
	if err != nil {
		log.Error("Failed to retrieve contract links", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve contract links"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": links,
		"meta": query.NewMeta(total, params),
	})
}

// GetContractLink returns a single document link by ID.
func GetContractLink(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract_link", "get")

	defer prometheus.TrackDBOperation("query")(time.Now())

	var link model.ContractLink
	if err := database.GetDB().First(&link, "id = ?", c.Param("id")).Error; err != nil {
		log.Warn("Contract link not found", zap.String("contract_link_id", c.Param("id")))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contract link not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"data": link})
}

// CreateContractLink attaches a document link to an existing contract. The
// referenced contract must exist and not be soft-deleted.
func CreateContractLink(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract_link", "create")

	var req struct {
		ContractID uint    `json:"contract_id"`
		Label      *string `json:"label"`
		URL        string  `json:"url"`
		IsPrimary  *bool   `json:"is_primary"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.ContractID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "contract_id is required"})
	}
	if req.URL == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "url is required"})
	}

	var contract model.Contract
	if err := database.GetDB().First(&contract, "id = ?", req.ContractID).Error; err != nil {
		log.Warn("Contract not found for link", zap.Uint("contract_id", req.ContractID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contract not found"})
	}

	link := model.ContractLink{
		ContractID: req.ContractID,
		Label:      req.Label,
		URL:        req.URL,
	}
	if req.IsPrimary != nil {
		link.IsPrimary = *req.IsPrimary
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&link).Error; err != nil {
		log.Error("Failed to create contract link", zap.Uint("contract_id", req.ContractID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create contract link"})
	}

	log.Info("Contract link created",
		zap.Uint("contract_link_id", link.ID),
		zap.Uint("contract_id", link.ContractID))
	return c.JSON(http.StatusCreated, echo.Map{"data": link})
}

// UpdateContractLink applies a partial update. Links carry no updated_at
// column, so only the requested fields change.
func UpdateContractLink(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract_link", "update")

	id := c.Param("id")

	var req struct {
		Label     *string `json:"label"`
		URL       *string `json:"url"`
		IsPrimary *bool   `json:"is_primary"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("contract_link_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Label != nil {
		updates["label"] = *req.Label
	}
	if req.URL != nil {
		if *req.URL == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "url cannot be empty"})
		}
		updates["url"] = *req.URL
	}
	if req.IsPrimary != nil {
		updates["is_primary"] = *req.IsPrimary
	}

	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	var link model.ContractLink
	if err := database.GetDB().First(&link, "id = ?", id).Error; err != nil {
		log.Warn("Contract link not found for update", zap.String("contract_link_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contract link not found"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&link).Updates(updates).Error; err != nil {
		log.Error("Failed to update contract link", zap.String("contract_link_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update contract link"})
	}

	log.Info("Contract link updated", zap.String("contract_link_id", id))
	return c.JSON(http.StatusOK, echo.Map{"data": link})
}

// DeleteContractLink removes a document link permanently.
func DeleteContractLink(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract_link", "delete")

	id := c.Param("id")

	var link model.ContractLink
	if err := database.GetDB().First(&link, "id = ?", id).Error; err != nil {
		log.Warn("Contract link not found for delete", zap.String("contract_link_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contract link not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&link).Error; err != nil {
		log.Error("Failed to delete contract link", zap.String("contract_link_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete contract link"})
	}

	log.Info("Contract link deleted", zap.String("contract_link_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "contract link deleted successfully"})
}
