package token

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mystor/storefront/internal/models"
)

func newTestService(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return &Service{
		DB:            db,
		JWTSecret:     []byte("test_jwt_secret"),
		RefreshSecret: []byte("test_refresh_secret"),
	}
}

func TestAccessRoundTrip(t *testing.T) {
	s := newTestService(t)

	raw, err := s.SignAccess(7, "admin")
	require.NoError(t, err)

	userID, role, err := ParseAccess(raw, s.JWTSecret)
	require.NoError(t, err)
	require.Equal(t, uint(7), userID)
	require.Equal(t, "admin", role)
}

func TestParseWrongSecret(t *testing.T) {
	s := newTestService(t)

	raw, err := s.SignAccess(7, "user")
	require.NoError(t, err)

	_, _, err = ParseAccess(raw, []byte("other_secret"))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRotate(t *testing.T) {
	s := newTestService(t)

	refresh, err := s.SignRefresh(7, "user")
	require.NoError(t, err)

	access, next, err := s.Rotate(refresh)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEqual(t, refresh, next)

	// the consumed token cannot rotate twice
	_, _, err = s.Rotate(refresh)
	require.ErrorIs(t, err, ErrInvalidToken)

	// but the replacement can
	_, _, err = s.Rotate(next)
	require.NoError(t, err)
}

func TestRevoke(t *testing.T) {
	s := newTestService(t)

	refresh, err := s.SignRefresh(7, "user")
	require.NoError(t, err)
	require.NoError(t, s.Revoke(refresh))

	_, _, err = s.Rotate(refresh)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRotateUnknownToken(t *testing.T) {
	s := newTestService(t)

	// validly signed but never stored
	other := &Service{DB: s.DB, JWTSecret: s.JWTSecret, RefreshSecret: s.RefreshSecret}
	raw, err := other.SignRefresh(7, "user")
	require.NoError(t, err)
	require.NoError(t, s.DB.Where("token = ?", raw).Delete(&models.RefreshToken{}).Error)

	_, _, err = s.Rotate(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}
