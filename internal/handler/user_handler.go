package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/mdyrsy/kalbar-cm/internal/identity"
	"github.com/mdyrsy/kalbar-cm/internal/model"
	"github.com/mdyrsy/kalbar-cm/internal/query"
	"github.com/mdyrsy/kalbar-cm/pkg/database"
	"github.com/mdyrsy/kalbar-cm/pkg/logger"
	"github.com/mdyrsy/kalbar-cm/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"
)

var userSortColumns = []string{"created_at", "name", "email", "last_login"}

// ListUsers returns a page of user profiles with search, role/segment
// filters and sorting.
func ListUsers(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("user", "list")

	params := query.ParseList(c.QueryParams(), userSortColumns)

	db := database.GetDB().Model(&model.User{})
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		db = db.Where("name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}
	if role := c.QueryParam("role"); role != "" {
		db = db.Where("role = ?", role)
	}
	if segment := c.QueryParam("segment"); segment != "" {
		db = db.Where("segment = ?", segment)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	if err := db.Count(&total).Error; err != nil {
		log.Error("Failed to count users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve users"})
	}

	var users []model.User
	err := db.Order(params.Order()).
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&users).Error
	if err != nil {
		log.Error("Failed to retrieve users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve users"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": users,
		"meta": query.NewMeta(total, params).WithNextPage(),
	})
}

// GetUser returns a single user profile by ID.
func GetUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("user", "get")

	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	if err := database.GetDB().First(&user, "id = ?", c.Param("id")).Error; err != nil {
		log.Warn("User not found", zap.String("user_id", c.Param("id")))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"data": user})
}

// CreateUser provisions an account with the identity provider and
// upserts the matching profile row. When the profile write fails the
// identity account is rolled back, so this path never leaves an
// identity-only orphan.
func CreateUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("user", "create")

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
		Segment  string `json:"segment"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Role == "" {
		req.Role = model.RoleAccountManager
	}
	if req.Segment == "" {
		req.Segment = model.SegmentPRQ
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email, and password are required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}
	if !model.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}
	if !model.ValidSegment(req.Segment) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown segment"})
	}

	params := identity.CreateUserParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Segment:  req.Segment,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	user, err := identity.ProvisionUser(c.Request().Context(), identity.Default(), params,
		func(u *model.User) error {
			return database.GetDB().
				Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
				Create(u).Error
		}, log)
	if err != nil {
		log.Error("Failed to create user", zap.String("email", req.Email), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	log.Info("User created",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email),
		zap.String("role", user.Role),
		zap.String("segment", user.Segment))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "user created successfully",
		"user":    user,
	})
}

// UpdateUser applies a partial update to the mutable profile fields.
// Changes do not propagate to the identity provider.
func UpdateUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("user", "update")

	id := c.Param("id")

	var req struct {
		Name    *string `json:"name"`
		Email   *string `json:"email"`
		Role    *string `json:"role"`
		Segment *string `json:"segment"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("user_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Role != nil {
		if !model.ValidRole(*req.Role) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
		}
		updates["role"] = *req.Role
	}
	if req.Segment != nil {
		if !model.ValidSegment(*req.Segment) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown segment"})
		}
		updates["segment"] = *req.Segment
	}

	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	var user model.User
	if err := database.GetDB().First(&user, "id = ?", id).Error; err != nil {
		log.Warn("User not found for update", zap.String("user_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&user).Updates(updates).Error; err != nil {
		log.Error("Failed to update user", zap.String("user_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user"})
	}

	log.Info("User updated", zap.String("user_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "user updated successfully",
		"data":    user,
	})
}

// DeleteUser soft-deletes a user profile. The identity-provider account
// stays untouched, so upstream sessions remain valid until they expire.
func DeleteUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("user", "delete")

	id := c.Param("id")

	var user model.User
	if err := database.GetDB().First(&user, "id = ?", id).Error; err != nil {
		log.Warn("User not found for delete", zap.String("user_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&user).Error; err != nil {
		log.Error("Failed to delete user", zap.String("user_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete user"})
	}

	log.Info("User soft-deleted", zap.String("user_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted successfully"})
}

// UserStats computes the total user count plus per-segment and per-role
// counts. Each bucket is an independent count query; the queries run
// concurrently and the whole request fails if any of them fails.
func UserStats(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("user", "stats")

	filters := []struct {
		column string
		value  string
	}{
		{"", ""},
		{"segment", model.SegmentGovernment},
		{"segment", model.SegmentEnterprise},
		{"segment", model.SegmentBusiness},
		{"segment", model.SegmentPRQ},
		{"role", model.RoleSuperAdmin},
		{"role", model.RoleAccountManager},
	}

	counts := make([]int64, len(filters))
	errs := make([]error, len(filters))

	defer prometheus.TrackDBOperation("query")(time.Now())

	var wg sync.WaitGroup
	for i, f := range filters {
		wg.Add(1)
		go func(i int, column, value string) {
			defer wg.Done()
			db := database.GetDB().Model(&model.User{})
			if column != "" {
				db = db.Where(column+" = ?", value)
			}
			errs[i] = db.Count(&counts[i]).Error
		}(i, f.column, f.value)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			log.Error("Failed to compute user statistics", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute user statistics"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"stats": echo.Map{
			"total": counts[0],
			"segments": echo.Map{
				"government": counts[1],
				"enterprise": counts[2],
				"business":   counts[3],
				"prq":        counts[4],
			},
			"roles": echo.Map{
				"super_admin":     counts[5],
				"account_manager": counts[6],
			},
		},
	})
}
