package middleware

import (
	"errors"
	"net/http"
	"strings"

	"agrointel-service/internal/model"
	"agrointel-service/pkg/database"
	"agrointel-service/pkg/jwtutil"
	"agrointel-service/pkg/logger"
	"agrointel-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Context keys set by AuthMiddleware
const (
	ContextUserKey   = "user"
	ContextUserIDKey = "user_id"
	ContextFarmIDKey = "farm_id"
	ContextRoleKey   = "user_role"
)

// AuthMiddleware validates the bearer token from the Authorization header
// and resolves the embedded identity against the users table, so tokens
// issued for since-deleted accounts stop working. The farm id placed in
// the context is the only tenant id handlers are allowed to use.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// The claims must still resolve to a stored user. Same response
		// body as an invalid token: no account-existence oracle.
		var user model.User
		if result := database.GetDB().First(&user, claims.UserID); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				log.Warn("Token identity no longer exists", zap.Uint("user_id", claims.UserID))
				prometheus.RecordAuthError("unknown_identity")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}
			log.Error("Failed to resolve token identity", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}

		// Store the authenticated identity for handlers. The farm id
		// always comes from the stored user, never from client input.
		c.Set(ContextUserKey, &user)
		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextFarmIDKey, user.FarmID)
		c.Set(ContextRoleKey, user.Role)

		return next(c)
	}
}

// CurrentUser returns the authenticated user placed in the context by
// AuthMiddleware.
func CurrentUser(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(ContextUserKey).(*model.User)
	return user, ok
}

// CurrentFarmID returns the caller's tenant scope
func CurrentFarmID(c echo.Context) (uint, bool) {
	id, ok := c.Get(ContextFarmIDKey).(uint)
	return id, ok
}
