package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mystor/storefront/internal/models"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

type Service struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

func (s *Service) SignAccess(userID uint, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  float64(userID),
		"role": role,
		"exp":  time.Now().Add(AccessTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.JWTSecret)
}

// SignRefresh issues a refresh token and records it so rotation can revoke it.
func (s *Service) SignRefresh(userID uint, role string) (string, error) {
	exp := time.Now().Add(RefreshTTL)
	// jti keeps tokens unique even when two are signed within the same second
	claims := jwt.MapClaims{
		"sub":  float64(userID),
		"role": role,
		"exp":  exp.Unix(),
		"jti":  uuid.NewString(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.RefreshSecret)
	if err != nil {
		return "", err
	}

	row := models.RefreshToken{Token: raw, UserID: userID, ExpiresAt: exp}
	if err := s.DB.Create(&row).Error; err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return raw, nil
}

// Rotate validates a refresh token against both its signature and its stored
// row, revokes it and issues a fresh pair.
func (s *Service) Rotate(raw string) (access, refresh string, err error) {
	userID, role, err := parse(raw, s.RefreshSecret)
	if err != nil {
		return "", "", err
	}

	var row models.RefreshToken
	if err := s.DB.Where("token = ?", raw).First(&row).Error; err != nil {
		return "", "", ErrInvalidToken
	}
	if row.Revoked || time.Now().After(row.ExpiresAt) {
		return "", "", ErrInvalidToken
	}

	if err := s.DB.Model(&row).Update("revoked", true).Error; err != nil {
		return "", "", err
	}

	access, err = s.SignAccess(userID, role)
	if err != nil {
		return "", "", err
	}
	refresh, err = s.SignRefresh(userID, role)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *Service) Revoke(raw string) error {
	return s.DB.Model(&models.RefreshToken{}).Where("token = ?", raw).Update("revoked", true).Error
}

// ParseAccess extracts the subject and role from an access token.
func ParseAccess(raw string, secret []byte) (uint, string, error) {
	return parse(raw, secret)
}

func parse(raw string, secret []byte) (uint, string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return 0, "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	return uint(sub), role, nil
}
