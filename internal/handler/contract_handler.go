package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mdyrsy/kalbar-cm/internal/model"
	"github.com/mdyrsy/kalbar-cm/internal/query"
	"github.com/mdyrsy/kalbar-cm/internal/stats"
	"github.com/mdyrsy/kalbar-cm/pkg/database"
	"github.com/mdyrsy/kalbar-cm/pkg/logger"
	"github.com/mdyrsy/kalbar-cm/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var contractSortColumns = []string{
	"created_at", "updated_at", "customer_name",
	"contract_value", "contract_date", "contract_number",
}

// ContractRequest defines the structure for contract creation requests
type ContractRequest struct {
	Segment            string     `json:"segment"`
	PicUserID          *string    `json:"pic_user_id"`
	ServiceID          *uint      `json:"service_id"`
	ContractTypeID     *uint      `json:"contract_type_id"`
	ContractProgressID *uint      `json:"contract_progress_id"`
	ContractKind       string     `json:"contract_kind"`
	CustomerName       string     `json:"customer_name"`
	ContractNumber     string     `json:"contract_number"`
	ContractValue      float64    `json:"contract_value"`
	ProgressNote       string     `json:"progress_note"`
	PaymentNote        *string    `json:"payment_note"`
	ContractDate       *time.Time `json:"contract_date"`
	CreatedBy          *string    `json:"created_by"`
}

// ListContracts returns a page of contracts with customer-name search,
// segment filter and sorting.
func ListContracts(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract", "list")

	params := query.ParseList(c.QueryParams(), contractSortColumns)

	db := database.GetDB().Model(&model.Contract{})
	if params.Search != "" {
		db = db.Where("customer_name ILIKE ?", "%"+params.Search+"%")
	}
	if segment := c.QueryParam("segment"); segment != "" {
		db = db.Where("segment = ?", segment)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	if err := db.Count(&total).Error; err != nil {
		log.Error("Failed to count contracts", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve contracts"})
	}

	var contracts []model.Contract
	err := db.Order(params.Order()).
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&contracts).Error
	if err != nil {
		log.Error("Failed to retrieve contracts", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve contracts"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": contracts,
		"meta": query.NewMeta(total, params),
	})
}

// GetContract returns a single contract by ID.
func GetContract(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract", "get")

	defer prometheus.TrackDBOperation("query")(time.Now())

	var contract model.Contract
	if err := database.GetDB().First(&contract, "id = ?", c.Param("id")).Error; err != nil {
		log.Warn("Contract not found", zap.String("contract_id", c.Param("id")))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contract not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"data": contract})
}

// CreateContract inserts a new contract.
func CreateContract(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract", "create")

	var req ContractRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Segment == "" || req.CustomerName == "" || req.ContractNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "segment, customer_name, and contract_number are required"})
	}
	if !model.ValidSegment(req.Segment) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown segment"})
	}

	contract := model.Contract{
		Segment:            req.Segment,
		PicUserID:          req.PicUserID,
		ServiceID:          req.ServiceID,
		ContractTypeID:     req.ContractTypeID,
		ContractProgressID: req.ContractProgressID,
		ContractKind:       req.ContractKind,
		CustomerName:       req.CustomerName,
		ContractNumber:     req.ContractNumber,
		ContractValue:      req.ContractValue,
		ProgressNote:       req.ProgressNote,
		PaymentNote:        req.PaymentNote,
		ContractDate:       req.ContractDate,
		CreatedBy:          req.CreatedBy,
	}

	// Stamp the creator from the session when the client did not send one.
	if contract.CreatedBy == nil {
		if userID, ok := c.Get("user_id").(string); ok && userID != "" {
			contract.CreatedBy = &userID
		}
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&contract).Error; err != nil {
		log.Error("Failed to create contract",
			zap.String("customer_name", req.CustomerName),
			zap.String("contract_number", req.ContractNumber),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create contract"})
	}

	go refreshSegmentGauges(contract.Segment)

	log.Info("Contract created",
		zap.Uint("contract_id", contract.ID),
		zap.String("customer_name", contract.CustomerName),
		zap.String("segment", contract.Segment))
	return c.JSON(http.StatusCreated, echo.Map{"data": contract})
}

// UpdateContract applies a partial update and stamps updated_at.
func UpdateContract(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract", "update")

	id := c.Param("id")

	var req struct {
		Segment            *string    `json:"segment"`
		PicUserID          *string    `json:"pic_user_id"`
		ServiceID          *uint      `json:"service_id"`
		ContractTypeID     *uint      `json:"contract_type_id"`
		ContractProgressID *uint      `json:"contract_progress_id"`
		ContractKind       *string    `json:"contract_kind"`
		CustomerName       *string    `json:"customer_name"`
		ContractNumber     *string    `json:"contract_number"`
		ContractValue      *float64   `json:"contract_value"`
		ProgressNote       *string    `json:"progress_note"`
		PaymentNote        *string    `json:"payment_note"`
		ContractDate       *time.Time `json:"contract_date"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("contract_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Segment != nil {
		if !model.ValidSegment(*req.Segment) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown segment"})
		}
		updates["segment"] = *req.Segment
	}
	if req.PicUserID != nil {
		updates["pic_user_id"] = *req.PicUserID
	}
	if req.ServiceID != nil {
		updates["service_id"] = *req.ServiceID
	}
	if req.ContractTypeID != nil {
		updates["contract_type_id"] = *req.ContractTypeID
	}
	if req.ContractProgressID != nil {
		updates["contract_progress_id"] = *req.ContractProgressID
	}
	if req.ContractKind != nil {
		updates["contract_kind"] = *req.ContractKind
	}
	if req.CustomerName != nil {
		updates["customer_name"] = *req.CustomerName
	}
	if req.ContractNumber != nil {
		updates["contract_number"] = *req.ContractNumber
	}
	if req.ContractValue != nil {
		updates["contract_value"] = *req.ContractValue
	}
	if req.ProgressNote != nil {
		updates["progress_note"] = *req.ProgressNote
	}
	if req.PaymentNote != nil {
		updates["payment_note"] = *req.PaymentNote
	}
	if req.ContractDate != nil {
		updates["contract_date"] = *req.ContractDate
	}

	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	var contract model.Contract
	if err := database.GetDB().First(&contract, "id = ?", id).Error; err != nil {
		log.Warn("Contract not found for update", zap.String("contract_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contract not found"})
	}
	oldSegment := contract.Segment

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&contract).Updates(updates).Error; err != nil {
		log.Error("Failed to update contract", zap.String("contract_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update contract"})
	}

	// A segment change moves the contract between gauges, so the old
	// segment needs a refresh as well.
	newSegment := oldSegment
	if req.Segment != nil {
		newSegment = *req.Segment
	}
	go refreshSegmentGauges(newSegment)
	if newSegment != oldSegment {
		go refreshSegmentGauges(oldSegment)
	}

	log.Info("Contract updated", zap.String("contract_id", id))
	return c.JSON(http.StatusOK, echo.Map{"data": contract})
}

// DeleteContract soft-deletes a contract.
func DeleteContract(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract", "delete")

	id := c.Param("id")

	var contract model.Contract
	if err := database.GetDB().First(&contract, "id = ?", id).Error; err != nil {
		log.Warn("Contract not found for delete", zap.String("contract_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contract not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&contract).Error; err != nil {
		log.Error("Failed to delete contract", zap.String("contract_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete contract"})
	}

	go refreshSegmentGauges(contract.Segment)

	log.Info("Contract soft-deleted",
		zap.Uint("contract_id", contract.ID),
		zap.String("segment", contract.Segment))
	return c.JSON(http.StatusOK, echo.Map{"message": "contract deleted successfully"})
}

// ContractStats aggregates contract counts and summed values over a
// year or a single month, broken down per business segment.
func ContractStats(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contract", "stats")

	yearParam := c.QueryParam("year")
	if yearParam == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "year is required"})
	}
	year, err := strconv.Atoi(yearParam)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "year must be a number"})
	}

	month := 0
	if monthParam := c.QueryParam("month"); monthParam != "" {
		month, err = strconv.Atoi(monthParam)
		if err != nil || month < 1 || month > 12 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "month must be between 1 and 12"})
		}
	}

	start, end := stats.Window(year, month)

	defer prometheus.TrackDBOperation("query")(time.Now())

	var contracts []model.Contract
	err = database.GetDB().
		Select("id", "segment", "contract_value", "created_at").
		Where("created_at >= ? AND created_at < ?", start, end).
		Find(&contracts).Error
	if err != nil {
		log.Error("Failed to load contracts for statistics",
			zap.Int("year", year),
			zap.Int("month", month),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute contract statistics"})
	}

	summary := stats.Summarize(contracts)

	var monthMeta *int
	if month != 0 {
		monthMeta = &month
	}

	log.Info("Contract statistics computed",
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int64("count", summary.Total.Count))

	return c.JSON(http.StatusOK, echo.Map{
		"meta": echo.Map{
			"year":       year,
			"month":      monthMeta,
			"start_date": start,
			"end_date":   end,
		},
		"total":       summary.Total,
		"per_segment": summary.PerSegment,
	})
}

// refreshSegmentGauges updates the per-segment contract gauges after a
// write. Runs on its own goroutine; failures only cost gauge freshness.
func refreshSegmentGauges(segment string) {
	var count int64
	var value float64
	row := database.GetDB().Model(&model.Contract{}).
		Select("COUNT(*), COALESCE(SUM(contract_value), 0)").
		Where("segment = ?", segment).
		Row()
	if err := row.Scan(&count, &value); err != nil {
		return
	}

	prometheus.UpdateSegmentContracts(segment, count, value)
}
