package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mercadito/tienda-backend/internal/middleware/auth"
	"github.com/mercadito/tienda-backend/internal/models"
	"github.com/mercadito/tienda-backend/internal/mykafka"
	"github.com/mercadito/tienda-backend/internal/util"
)

type OrderHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	publishEvent(c, h.Producer, "order_events", fmt.Sprint(event["userID"]), event)
}

// CreateFromCart materializes an order from any cart that is already paid.
// Unlike the checkout flow it neither touches stock nor clears the cart; it
// only snapshots the items at their current price.
func (h *OrderHandler) CreateFromCart(c echo.Context) error {
	claims, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	var req struct {
		CartID          uint   `json:"carritoId"`
		ShippingAddress string `json:"direccionEnvio"`
		PaymentMethod   string `json:"metodoPago"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "cuerpo de la petición inválido")
	}

	var cart models.Cart
	if err := h.DB.Preload("Items.Product").First(&cart, req.CartID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Carrito no encontrado")
		}
		return internalError(c, err)
	}
	if cart.Status != models.CartStatusPaid {
		return respondError(c, http.StatusBadRequest,
			`El carrito debe estar en estado "pagado" para generar el pedido`)
	}
	if len(cart.Items) == 0 {
		return respondError(c, http.StatusBadRequest, "Debe haber al menos un ítem en el pedido")
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	var total float64
	for _, it := range cart.Items {
		if it.Product == nil {
			return respondError(c, http.StatusNotFound, "Producto no encontrado")
		}
		items = append(items, models.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.Product.Price,
		})
		total += float64(it.Quantity) * it.Product.Price
	}

	order := models.Order{
		CartID:          cart.ID,
		User:            models.OrderUser{ID: claims.UserID, Email: claims.Email, Name: claims.Name},
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
	if !models.ValidPaymentMethod(order.PaymentMethod) {
		return respondError(c, http.StatusBadRequest, "Método de pago inválido")
	}

	if err := h.DB.Create(&order).Error; err != nil {
		// The unique index on the cart reference enforces one order per cart.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return respondError(c, http.StatusConflict, "Este carrito ya ha sido convertido en pedido")
		}
		return internalError(c, err)
	}

	h.publish(c, map[string]any{
		"type":    "order_created",
		"userID":  claims.UserID,
		"orderID": order.ID,
		"total":   order.Total,
	})

	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrders(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, limit)

	var total int64
	if err := h.DB.Model(&models.Order{}).Count(&total).Error; err != nil {
		return internalError(c, err)
	}

	var orders []models.Order
	if err := h.DB.Preload("Items").Order("id ASC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return internalError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total":      total,
		"page":       page,
		"limit":      limit,
		"totalPages": util.TotalPages(total, limit),
		"pedidos":    orders,
	})
}

// GetMyOrders lists the caller's own orders, matched on the embedded user
// snapshot.
func (h *OrderHandler) GetMyOrders(c echo.Context) error {
	claims, err := auth.FromContext(c)
	if err != nil {
		return err
	}

	var orders []models.Order
	if err := h.DB.Preload("Items").Where("user_id = ?", claims.UserID).Order("id ASC").Find(&orders).Error; err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "id inválido")
	}

	var order models.Order
	if err := h.DB.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Pedido no encontrado")
		}
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// UpdateOrder accepts status and shipping changes only; items and total are
// frozen at creation time.
func (h *OrderHandler) UpdateOrder(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "id inválido")
	}

	var req struct {
		Status          *string `json:"estado"`
		ShippingAddress *string `json:"direccionEnvio"`
		PaymentMethod   *string `json:"metodoPago"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "cuerpo de la petición inválido")
	}

	var order models.Order
	if err := h.DB.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Pedido no encontrado")
		}
		return internalError(c, err)
	}

	if req.Status != nil {
		if !models.ValidOrderStatus(*req.Status) {
			return respondError(c, http.StatusBadRequest, "Estado inválido")
		}
		order.Status = *req.Status
	}
	if req.ShippingAddress != nil {
		order.ShippingAddress = *req.ShippingAddress
	}
	if req.PaymentMethod != nil {
		if !models.ValidPaymentMethod(*req.PaymentMethod) {
			return respondError(c, http.StatusBadRequest, "Método de pago inválido")
		}
		order.PaymentMethod = *req.PaymentMethod
	}

	if err := h.DB.Save(&order).Error; err != nil {
		return internalError(c, err)
	}

	h.publish(c, map[string]any{
		"type":    "order_updated",
		"userID":  order.User.ID,
		"orderID": order.ID,
		"estado":  order.Status,
	})

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "id inválido")
	}

	var order models.Order
	if err := h.DB.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Pedido no encontrado")
		}
		return internalError(c, err)
	}

	if err := h.DB.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
		return internalError(c, err)
	}
	if err := h.DB.Delete(&order).Error; err != nil {
		return internalError(c, err)
	}

	h.publish(c, map[string]any{
		"type":    "order_deleted",
		"userID":  order.User.ID,
		"orderID": order.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{"msg": "Pedido eliminado correctamente"})
}
