package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mystor/storefront/internal/hash"
	"github.com/mystor/storefront/internal/logging"
	"github.com/mystor/storefront/internal/models"
	"github.com/mystor/storefront/internal/mykafka"
	"github.com/mystor/storefront/internal/service/token"
	"github.com/mystor/storefront/internal/transport"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.Service
	Producer *mykafka.Producer
}

func CreateCookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, transport.Response{Status: "error", Message: "invalid body"})
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, transport.Response{Status: "error", Message: "username and password required"})
	}

	var existing models.User
	err := h.DB.Where("username = ?", req.Username).First(&existing).Error
	if err == nil {
		return c.JSON(http.StatusConflict, transport.Response{Status: "error", Message: "user already exists"})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("register_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.Response{Status: "error", Message: "internal error"})
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.Response{Status: "error", Message: "internal error"})
	}

	user := models.User{Username: req.Username, PasswordHash: pwHash, Role: "user"}
	if err := h.DB.Create(&user).Error; err != nil {
		l.Error("register_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.Response{Status: "error", Message: "internal error"})
	}

	// The profile row is created here, as an explicit registration step.
	if err := h.createCustomerProfile(ctx, &user, req.FullName, req.Email, req.Phone); err != nil {
		l.Error("register_profile_error", "error", err)
	}

	h.publish(c, "user_events", fmt.Sprint(user.ID), map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) createCustomerProfile(ctx context.Context, user *models.User, name, email, phone string) error {
	if name == "" {
		name = user.Username
	}
	customer := models.Customer{
		UserID:      &user.ID,
		Name:        name,
		Email:       email,
		PhoneNumber: phone,
	}
	return h.DB.WithContext(ctx).
		Where(models.Customer{UserID: &user.ID}).
		FirstOrCreate(&customer).Error
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, transport.Response{Status: "error", Message: "invalid body"})
	}

	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		return c.JSON(http.StatusUnauthorized, transport.Response{Status: "error", Message: "invalid credentials"})
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, transport.Response{Status: "error", Message: "invalid credentials"})
	}

	access, err := h.Tokens.SignAccess(user.ID, user.Role)
	if err != nil {
		l.Error("login_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.Response{Status: "error", Message: "internal error"})
	}
	refresh, err := h.Tokens.SignRefresh(user.ID, user.Role)
	if err != nil {
		l.Error("login_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.Response{Status: "error", Message: "internal error"})
	}

	c.SetCookie(CreateCookie("accessToken", access, "/", time.Now().Add(token.AccessTTL)))
	c.SetCookie(CreateCookie("refreshToken", refresh, "/", time.Now().Add(token.RefreshTTL)))

	l.Info("login_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, map[string]string{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ck, err := c.Cookie("refreshToken")
	if err != nil || ck.Value == "" {
		return c.JSON(http.StatusUnauthorized, transport.Response{Status: "error", Message: "missing refresh token"})
	}

	access, refresh, err := h.Tokens.Rotate(ck.Value)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, transport.Response{Status: "error", Message: "invalid refresh token"})
	}

	c.SetCookie(CreateCookie("accessToken", access, "/", time.Now().Add(token.AccessTTL)))
	c.SetCookie(CreateCookie("refreshToken", refresh, "/", time.Now().Add(token.RefreshTTL)))
	return c.JSON(http.StatusOK, map[string]string{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if ck, err := c.Cookie("refreshToken"); err == nil && ck.Value != "" {
		if err := h.Tokens.Revoke(ck.Value); err != nil {
			logging.FromContext(c.Request().Context()).Error("logout_revoke_error", "error", err)
		}
	}

	c.SetCookie(CreateCookie("accessToken", "", "/", time.Unix(0, 0)))
	c.SetCookie(CreateCookie("refreshToken", "", "/", time.Unix(0, 0)))
	return c.JSON(http.StatusOK, transport.Response{Status: "success", Message: "logged out"})
}

func (h *AuthHandler) publish(c echo.Context, topic, key string, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka_publish_error", "topic", topic, "error", err)
	}
}
