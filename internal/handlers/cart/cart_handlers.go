package cart

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mercadito/tienda-backend/internal/middleware/auth"
	"github.com/mercadito/tienda-backend/internal/models"
	"github.com/mercadito/tienda-backend/internal/mykafka"
)

type CartHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *CartHandler) GetCart(c echo.Context) error {
	claims, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	cart, err := h.fetchOrCreateCart(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Usuario no encontrado")
		}
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, cart)
}

// AddItem upserts a line item: an existing line gets its quantity replaced,
// never incremented.
func (h *CartHandler) AddItem(c echo.Context) error {
	claims, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint `json:"producto"`
		Quantity  uint `json:"cantidad"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "cuerpo de la petición inválido")
	}
	if req.Quantity < 1 {
		return respondError(c, http.StatusBadRequest, "La cantidad mínima es 1")
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Producto no encontrado")
		}
		return internalError(c, err)
	}
	if int(req.Quantity) > product.Stock {
		return respondError(c, http.StatusBadRequest,
			fmt.Sprintf("Solo hay %d unidades disponibles", product.Stock))
	}

	cart, err := h.fetchOrCreateCart(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Usuario no encontrado")
		}
		return internalError(c, err)
	}

	var existing *models.CartItem
	for i := range cart.Items {
		if cart.Items[i].ProductID == req.ProductID {
			existing = &cart.Items[i]
			break
		}
	}

	if existing != nil {
		if err := h.DB.Model(existing).Update("quantity", req.Quantity).Error; err != nil {
			return internalError(c, err)
		}
	} else {
		item := models.CartItem{CartID: cart.ID, ProductID: req.ProductID, Quantity: req.Quantity}
		if err := h.DB.Create(&item).Error; err != nil {
			return internalError(c, err)
		}
	}

	cart, err = h.loadCart(claims.UserID)
	if err != nil {
		return internalError(c, err)
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_upserted",
		"userID":    claims.UserID,
		"productID": req.ProductID,
		"cantidad":  req.Quantity,
	})

	return c.JSON(http.StatusOK, cart)
}

// RemoveItem deletes the line for the given product. Removing a product that
// is not in the cart is a no-op.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	claims, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	productID, err := strconv.ParseUint(c.Param("productoId"), 10, 64)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "id de producto inválido")
	}

	cart, err := h.loadCart(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Carrito no encontrado")
		}
		return internalError(c, err)
	}

	if err := h.DB.
		Where("cart_id = ? AND product_id = ?", cart.ID, uint(productID)).
		Delete(&models.CartItem{}).Error; err != nil {
		return internalError(c, err)
	}

	cart, err = h.loadCart(claims.UserID)
	if err != nil {
		return internalError(c, err)
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_removed",
		"userID":    claims.UserID,
		"productID": productID,
	})

	return c.JSON(http.StatusOK, cart)
}

// Clear empties the cart's item list and returns the resulting empty cart.
func (h *CartHandler) Clear(c echo.Context) error {
	claims, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	cart, err := h.loadCart(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Carrito no encontrado")
		}
		return internalError(c, err)
	}

	if err := h.DB.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return internalError(c, err)
	}
	cart.Items = []models.CartItem{}

	h.publish(c, map[string]any{
		"type":   "cart_cleared",
		"userID": claims.UserID,
	})

	return c.JSON(http.StatusOK, cart)
}
