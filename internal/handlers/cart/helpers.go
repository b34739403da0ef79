package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mercadito/tienda-backend/internal/logging"
	"github.com/mercadito/tienda-backend/internal/models"
)

const internalErrorMsg = "Error interno del servidor"

func respondError(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"msg": msg})
}

func internalError(c echo.Context, err error) error {
	logging.FromContext(c.Request().Context()).Error("internal error", "err", err)
	return respondError(c, http.StatusInternalServerError, internalErrorMsg)
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "topic", "cart_events", "err", err)
	}
}

// loadCart fetches the user's cart with every line item's product resolved.
func (h *CartHandler) loadCart(userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := h.DB.Preload("Items.Product").Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// fetchOrCreateCart returns the user's cart, creating an empty pending one
// embedding the user's current email and name when none exists yet.
// gorm.ErrRecordNotFound means the user id itself did not resolve.
func (h *CartHandler) fetchOrCreateCart(userID uint) (*models.Cart, error) {
	cart, err := h.loadCart(userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return nil, err
	}

	newCart := models.Cart{
		User:   models.CartUser{ID: user.ID, Email: user.Email, Name: user.Name},
		Items:  []models.CartItem{},
		Status: models.CartStatusPending,
	}
	if err := h.DB.Create(&newCart).Error; err != nil {
		return nil, err
	}
	return &newCart, nil
}
