package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"agrointel-service/internal/middleware"
	"agrointel-service/internal/model"
	"agrointel-service/pkg/database"
	"agrointel-service/pkg/jwtutil"
	"agrointel-service/pkg/logger"
	"agrointel-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// registrationAvailable verifies the unique identifiers before any row
// is written. A storage failure is not treated as availability.
func registrationAvailable(taxID, email string) error {
	var farm model.Farm
	result := database.GetDB().Where("tax_id = ?", taxID).First(&farm)
	if result.Error == nil {
		return errTaxIDInUse
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	var user model.User
	result = database.GetDB().Where("email = ?", email).First(&user)
	if result.Error == nil {
		return errEmailInUse
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

// Register creates a new farm together with its admin user and returns
// a bearer token. Farm and user are written in one transaction: a
// duplicate email or any storage failure leaves zero rows behind.
func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		FarmName string `json:"farm_name"`
		TaxID    string `json:"tax_id"`
		Address  string `json:"address"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" || req.FarmName == "" || req.TaxID == "" {
		log.Error("Incomplete registration data", zap.String("email", req.Email))
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email, password, farm_name and tax_id are required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	// Uniqueness checks before any write
	if err := registrationAvailable(req.TaxID, req.Email); err != nil {
		switch {
		case errors.Is(err, errTaxIDInUse):
			log.Error("Tax id already registered", zap.String("tax_id", req.TaxID))
			prometheus.RecordAuthError("duplicate_tax_id")
			return c.JSON(http.StatusConflict, echo.Map{"error": "this tax id is already registered"})
		case errors.Is(err, errEmailInUse):
			log.Error("Email already registered", zap.String("email", req.Email))
			prometheus.RecordAuthError("duplicate_email")
			return c.JSON(http.StatusConflict, echo.Map{"error": "this email is already in use"})
		default:
			log.Error("Failed to check registration uniqueness", zap.Error(err))
			prometheus.RecordAuthError("database_error")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
		}
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	// Begin transaction
	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		prometheus.RecordAuthError("database_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	farm := model.Farm{
		Name:    req.FarmName,
		TaxID:   req.TaxID,
		Address: req.Address,
	}
	if result := tx.Create(&farm); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create farm", zap.Error(result.Error))
		prometheus.RecordAuthError("farm_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	user := model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     model.RoleAdmin,
		FarmID:   farm.ID,
	}
	if result := tx.Create(&user); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create user", zap.Error(result.Error))
		prometheus.RecordAuthError("user_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit registration", zap.Error(err))
		prometheus.RecordAuthError("transaction_commit_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	token, err := jwtutil.GenerateToken(user.Email, user.ID, user.FarmID, user.Role, jwtutil.DefaultTTL())
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}
	prometheus.IncreaseActiveTokens()

	log.Info("Farm registered",
		zap.String("farm", farm.Name),
		zap.Uint("farm_id", farm.ID),
		zap.String("email", user.Email))

	return c.JSON(http.StatusCreated, echo.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// Login exchanges email and password for a bearer token. Unknown email
// and wrong password produce the same response.
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		log.Error("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": model.ErrInvalidCredentials.Error()})
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": model.ErrInvalidCredentials.Error()})
	}

	token, err := jwtutil.GenerateToken(user.Email, user.ID, user.FarmID, user.Role, jwtutil.DefaultTTL())
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}
	prometheus.IncreaseActiveTokens()

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("farm_id", user.FarmID))

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// Me returns the authenticated user's profile and farm summary. The farm
// row may not exist yet (it is lazily provisioned on the first boundary
// write), so farm fields are nullable.
func Me(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := middleware.CurrentUser(c)
	if !ok {
		log.Error("Failed to get user from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var farmName *string
	var logoURL *string
	var farm model.Farm
	if result := database.GetDB().First(&farm, user.FarmID); result.Error == nil {
		farmName = &farm.Name
		logoURL = farm.LogoURL
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":        user.ID,
		"name":      user.Name,
		"email":     user.Email,
		"role":      user.Role,
		"farm_id":   user.FarmID,
		"farm_name": farmName,
		"logo_url":  logoURL,
	})
}
