package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/mdyrsy/kalbar-cm/internal/identity"
	"github.com/mdyrsy/kalbar-cm/internal/model"
	"github.com/mdyrsy/kalbar-cm/pkg/database"
	"github.com/mdyrsy/kalbar-cm/pkg/logger"
	"github.com/mdyrsy/kalbar-cm/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Login verifies credentials with the identity provider, stamps the
// profile's last_login and returns the profile plus the session tokens.
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("missing_credentials")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	session, err := identity.Default().SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			log.Warn("Login rejected", zap.String("email", req.Email))
			prometheus.RecordAuthError("invalid_credentials")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		log.Error("Identity sign-in failed", zap.Error(err))
		prometheus.RecordAuthError("identity_unavailable")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	// Stamp last_login and load the profile row. The identity session
	// already exists at this point, so a failure here leaves the caller
	// authenticated upstream but without a profile.
	defer prometheus.TrackDBOperation("update")(time.Now())
	now := time.Now()
	var user model.User
	err = database.GetDB().Model(&model.User{}).
		Where("id = ?", session.UserID).
		Update("last_login", now).Error
	if err == nil {
		err = database.GetDB().First(&user, "id = ?", session.UserID).Error
	}
	if err != nil {
		log.Error("Failed to load user profile after sign-in",
			zap.String("user_id", session.UserID),
			zap.Error(err))
		prometheus.RecordAuthError("profile_fetch_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load user profile"})
	}

	log.Info("User logged in",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email),
		zap.String("segment", user.Segment))
	prometheus.ActiveSessionsGauge.Inc()

	return c.JSON(http.StatusOK, echo.Map{
		"user": user,
		"session": echo.Map{
			"access_token":  session.AccessToken,
			"refresh_token": session.RefreshToken,
			"expires_in":    session.ExpiresIn,
		},
	})
}

// Register handles self-service signup. Accounts created this way get
// the fixed super_admin role and PRQ segment; day-to-day accounts are
// provisioned by an admin through CreateUser instead.
func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email, and password are required"})
	}

	if len(req.Password) < 8 {
		prometheus.RecordAuthError("weak_password")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	params := identity.CreateUserParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.RoleSuperAdmin,
		Segment:  model.SegmentPRQ,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	user, err := identity.ProvisionUser(c.Request().Context(), identity.Default(), params,
		func(u *model.User) error {
			return database.GetDB().Create(u).Error
		}, log)
	if err != nil {
		log.Error("Registration failed", zap.String("email", req.Email), zap.Error(err))
		prometheus.RecordAuthError("registration_failed")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	log.Info("User registered", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, echo.Map{
		"id":      user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"segment": user.Segment,
	})
}

// RefreshSession exchanges a refresh token for a new session.
func RefreshSession(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}

	session, err := identity.Default().Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			prometheus.RecordAuthError("invalid_refresh_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired refresh token"})
		}
		log.Error("Session refresh failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"session": echo.Map{
			"access_token":  session.AccessToken,
			"refresh_token": session.RefreshToken,
			"expires_in":    session.ExpiresIn,
		},
	})
}
