package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"agrointel-service/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

// expiryLeeway is the clock-skew grace window applied when validating
// token expiry.
const expiryLeeway = 30 * time.Second

var cfg *config.JWTConfig

// ErrInvalidToken is returned for any token that fails validation:
// bad signature, malformed structure, or expired.
var ErrInvalidToken = errors.New("invalid token")

// UserClaims represents the JWT claims for user authentication.
// FarmID scopes every authenticated request to one tenant.
type UserClaims struct {
	Email  string `json:"email"`
	UserID uint   `json:"user_id"`
	FarmID uint   `json:"farm_id"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Initialize sets the process-wide signing configuration. Rotating the
// signing key invalidates all outstanding tokens.
func Initialize(c *config.JWTConfig) {
	cfg = c
}

// DefaultTTL returns the configured token lifetime
func DefaultTTL() time.Duration {
	if cfg == nil {
		return time.Hour
	}
	return time.Duration(cfg.ExpirationHours) * time.Hour
}

// GenerateToken creates a signed JWT carrying user identity and farm scope
func GenerateToken(email string, userID, farmID uint, role string, ttl time.Duration) (string, error) {
	if cfg == nil {
		return "", errors.New("JWT configuration not provided")
	}

	now := time.Now()
	claims := UserClaims{
		Email:  email,
		UserID: userID,
		FarmID: farmID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.SigningKey))
}

// ValidateToken validates and parses the JWT token. Expiry is checked
// with a 30 second leeway to tolerate clock skew between hosts.
func ValidateToken(tokenString string) (*UserClaims, error) {
	if cfg == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(cfg.SigningKey), nil
		},
		jwt.WithLeeway(expiryLeeway),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
