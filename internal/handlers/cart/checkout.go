package cart

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mercadito/tienda-backend/internal/middleware/auth"
	"github.com/mercadito/tienda-backend/internal/models"
)

// UpdateStatus drives the checkout workflow. A transition to "pagado"
// validates stock against the cart as read, persists the new status, then
// materializes an order, decrements each product's stock one save at a time
// and empties the cart. Each persistence step commits independently; there is
// no rollback if a later step fails.
func (h *CartHandler) UpdateStatus(c echo.Context) error {
	claims, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	var req struct {
		Status          string `json:"estado"`
		ShippingAddress string `json:"direccionEnvio"`
		PaymentMethod   string `json:"metodoPago"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "cuerpo de la petición inválido")
	}
	if req.Status != models.CartStatusPending && req.Status != models.CartStatusPaid {
		return respondError(c, http.StatusBadRequest, "Estado inválido")
	}

	cart, err := h.loadCart(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Carrito no encontrado")
		}
		return internalError(c, err)
	}

	// A paid transition materializes an order, so the order invariants hold
	// here too: a known payment method and at least one line.
	if req.Status == models.CartStatusPaid {
		if req.PaymentMethod != "" && !models.ValidPaymentMethod(req.PaymentMethod) {
			return respondError(c, http.StatusBadRequest, "Método de pago inválido")
		}
		if len(cart.Items) == 0 {
			return respondError(c, http.StatusBadRequest, "Debe haber al menos un ítem en el pedido")
		}
	}

	// Stock is validated before any mutation, against the products resolved
	// when the cart was read. It is not re-checked before the decrements.
	for _, item := range cart.Items {
		if item.Product == nil {
			return respondError(c, http.StatusNotFound, "Producto no encontrado")
		}
		if int(item.Quantity) > item.Product.Stock {
			return respondError(c, http.StatusBadRequest, fmt.Sprintf(
				`No hay suficiente stock para el producto "%s". Disponible: %d`,
				item.Product.Name, item.Product.Stock))
		}
	}

	if err := h.DB.Model(cart).Update("status", req.Status).Error; err != nil {
		return internalError(c, err)
	}
	cart.Status = req.Status

	if req.Status != models.CartStatusPaid {
		return c.JSON(http.StatusOK, cart)
	}

	var user models.User
	if err := h.DB.First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Usuario no encontrado")
		}
		return internalError(c, err)
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	var total float64
	for _, it := range cart.Items {
		items = append(items, models.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.Product.Price,
		})
		total += float64(it.Quantity) * it.Product.Price
	}

	order := models.Order{
		CartID:          cart.ID,
		User:            models.OrderUser{ID: user.ID, Email: user.Email, Name: user.Name},
		Items:           items,
		Total:           total,
		Status:          models.OrderStatusPaid,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	}
	if order.ShippingAddress == "" {
		order.ShippingAddress = models.DefaultShippingAddress
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = models.DefaultPaymentMethod
	}

	if err := h.DB.Create(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return respondError(c, http.StatusConflict, "Este carrito ya ha sido convertido en pedido")
		}
		return internalError(c, err)
	}

	// One save per product, no batch and no compensation: a failure here
	// leaves the order in place with part of the stock decremented.
	for _, it := range cart.Items {
		var prod models.Product
		if err := h.DB.First(&prod, it.ProductID).Error; err != nil {
			return internalError(c, err)
		}
		prod.Stock -= int(it.Quantity)
		if err := h.DB.Save(&prod).Error; err != nil {
			return internalError(c, err)
		}
	}

	if err := h.DB.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return internalError(c, err)
	}

	h.publish(c, map[string]any{
		"type":    "cart_checked_out",
		"userID":  claims.UserID,
		"orderID": order.ID,
		"total":   order.Total,
	})

	return c.JSON(http.StatusCreated, echo.Map{"pedido": order})
}
