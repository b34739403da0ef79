package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mercadito/tienda-backend/internal/hash"
	"github.com/mercadito/tienda-backend/internal/middleware/auth"
	"github.com/mercadito/tienda-backend/internal/models"
	"github.com/mercadito/tienda-backend/internal/mykafka"
)

const tokenTTL = 24 * time.Hour

type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret []byte
	Producer  *mykafka.Producer
}

func (h *AuthHandler) publish(c echo.Context, event map[string]any) {
	publishEvent(c, h.Producer, "user_events", fmt.Sprint(event["userID"]), event)
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"nombre"`
		City     string `json:"ciudad"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "cuerpo de la petición inválido")
	}
	if req.Email == "" || req.Name == "" || req.Password == "" {
		return respondError(c, http.StatusBadRequest, "email, nombre y password son requeridos")
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return internalError(c, err)
	}

	user := models.User{
		Email:        req.Email,
		Name:         req.Name,
		City:         req.City,
		PasswordHash: passwordHash,
		Role:         "user",
	}
	if err := h.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return respondError(c, http.StatusConflict, "Ya existe un usuario con ese email")
		}
		return internalError(c, err)
	}

	h.publish(c, map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "cuerpo de la petición inválido")
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusUnauthorized, "Credenciales inválidas")
		}
		return internalError(c, err)
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return respondError(c, http.StatusUnauthorized, "Credenciales inválidas")
	}

	token, err := auth.SignToken(user.ID, user.Email, user.Name, user.Role, h.JWTSecret, tokenTTL)
	if err != nil {
		return internalError(c, err)
	}

	h.publish(c, map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID,
		"email":  user.Email,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"token":   token,
		"usuario": user,
	})
}
