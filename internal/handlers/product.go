package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mercadito/tienda-backend/internal/es"
	"github.com/mercadito/tienda-backend/internal/logging"
	"github.com/mercadito/tienda-backend/internal/models"
	"github.com/mercadito/tienda-backend/internal/mykafka"
	"github.com/mercadito/tienda-backend/internal/util"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	publishEvent(c, h.Producer, "product_events", fmt.Sprint(event["productID"]), event)
}

func (h *ProductHandler) index(c echo.Context, p models.Product) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := es.IndexProduct(ctx, h.ES, h.Index, p); err != nil {
		logging.FromContext(ctx).Error("es index error", "productID", p.ID, "err", err)
	}
}

type productRequest struct {
	SKU         string  `json:"sku"`
	Name        string  `json:"nombre"`
	Description string  `json:"descripcion"`
	Price       float64 `json:"precio"`
	Stock       int     `json:"stock"`
	Category    string  `json:"categoria"`
	Image       string  `json:"imagen"`
	Available   *bool   `json:"disponible"`
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "cuerpo de la petición inválido")
	}
	if req.SKU == "" {
		return respondError(c, http.StatusBadRequest, "El SKU es requerido")
	}
	if req.Name == "" {
		return respondError(c, http.StatusBadRequest, "El nombre del producto es requerido")
	}
	if req.Price < 0 {
		return respondError(c, http.StatusBadRequest, "El precio no puede ser negativo")
	}
	if req.Stock < 0 {
		return respondError(c, http.StatusBadRequest, "El stock no puede ser negativo")
	}

	var existing models.Product
	err := h.DB.Where("sku = ?", req.SKU).First(&existing).Error
	if err == nil {
		return respondError(c, http.StatusConflict, "Ya existe un producto con ese SKU")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return internalError(c, err)
	}

	prod := models.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Image:       req.Image,
		Available:   true,
	}
	if req.Available != nil {
		prod.Available = *req.Available
	}

	if err := h.DB.Create(&prod).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return respondError(c, http.StatusConflict, "Ya existe un producto con ese SKU")
		}
		return internalError(c, err)
	}

	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"sku":       prod.SKU,
		"nombre":    prod.Name,
	})
	h.index(c, prod)

	return c.JSON(http.StatusCreated, prod)
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, limit)

	var total int64
	if err := h.DB.Model(&models.Product{}).Count(&total).Error; err != nil {
		return internalError(c, err)
	}

	var products []models.Product
	if err := h.DB.Order("id ASC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return internalError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total":      total,
		"page":       page,
		"limit":      limit,
		"totalPages": util.TotalPages(total, limit),
		"productos":  products,
	})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "id inválido")
	}

	var prod models.Product
	if err := h.DB.First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Producto no encontrado")
		}
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, prod)
}

type productUpdateRequest struct {
	SKU         *string  `json:"sku"`
	Name        *string  `json:"nombre"`
	Description *string  `json:"descripcion"`
	Price       *float64 `json:"precio"`
	Stock       *int     `json:"stock"`
	Category    *string  `json:"categoria"`
	Image       *string  `json:"imagen"`
	Available   *bool    `json:"disponible"`
}

// UpdateProduct applies only the fields present in the body. gorm stamps
// fecha_actualizacion on save.
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "id inválido")
	}

	var req productUpdateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "cuerpo de la petición inválido")
	}

	var prod models.Product
	if err := h.DB.First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Producto no encontrado")
		}
		return internalError(c, err)
	}

	if req.SKU != nil {
		prod.SKU = *req.SKU
	}
	if req.Name != nil {
		prod.Name = *req.Name
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return respondError(c, http.StatusBadRequest, "El precio no puede ser negativo")
		}
		prod.Price = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return respondError(c, http.StatusBadRequest, "El stock no puede ser negativo")
		}
		prod.Stock = *req.Stock
	}
	if req.Category != nil {
		prod.Category = *req.Category
	}
	if req.Image != nil {
		prod.Image = *req.Image
	}
	if req.Available != nil {
		prod.Available = *req.Available
	}

	if err := h.DB.Save(&prod).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return respondError(c, http.StatusConflict, "Ya existe un producto con ese SKU")
		}
		return internalError(c, err)
	}

	h.publish(c, map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"nombre":    prod.Name,
	})
	h.index(c, prod)

	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "id inválido")
	}

	var prod models.Product
	if err := h.DB.First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Producto no encontrado")
		}
		return internalError(c, err)
	}

	if err := h.DB.Delete(&prod).Error; err != nil {
		return internalError(c, err)
	}

	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})
	if h.ES != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := es.DeleteProduct(ctx, h.ES, h.Index, id); err != nil {
			logging.FromContext(ctx).Error("es delete error", "productID", id, "err", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"msg": "Producto eliminado correctamente"})
}

// SearchByCategory lists products of one category straight from the primary
// store; the free-text search lives in SearchHandler.
func (h *ProductHandler) SearchByCategory(c echo.Context) error {
	category := c.QueryParam("categoria")
	if category == "" {
		return respondError(c, http.StatusBadRequest, "La categoría es requerida")
	}

	var products []models.Product
	if err := h.DB.Where("category = ?", category).Order("id ASC").Find(&products).Error; err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}
