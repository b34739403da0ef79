package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mercadito/tienda-backend/internal/models"
	"github.com/mercadito/tienda-backend/internal/util"
)

// UserHandler is the admin-only surface over the identity store.
type UserHandler struct {
	DB *gorm.DB
}

func (h *UserHandler) GetUsers(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, limit)

	var total int64
	if err := h.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		return internalError(c, err)
	}

	var users []models.User
	if err := h.DB.Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return internalError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total":      total,
		"page":       page,
		"limit":      limit,
		"totalPages": util.TotalPages(total, limit),
		"usuarios":   users,
	})
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "id inválido")
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Usuario no encontrado")
		}
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// SearchByCity mirrors the category-search contract: the filter is required.
func (h *UserHandler) SearchByCity(c echo.Context) error {
	city := c.QueryParam("ciudad")
	if city == "" {
		return respondError(c, http.StatusBadRequest, "La ciudad es requerida")
	}

	var users []models.User
	if err := h.DB.Where("city = ?", city).Order("id ASC").Find(&users).Error; err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "id inválido")
	}

	var req struct {
		Email *string `json:"email"`
		Name  *string `json:"nombre"`
		City  *string `json:"ciudad"`
		Role  *string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "cuerpo de la petición inválido")
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Usuario no encontrado")
		}
		return internalError(c, err)
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.City != nil {
		user.City = *req.City
	}
	if req.Role != nil {
		if *req.Role != "user" && *req.Role != "admin" {
			return respondError(c, http.StatusBadRequest, "Rol inválido")
		}
		user.Role = *req.Role
	}

	if err := h.DB.Save(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return respondError(c, http.StatusConflict, "Ya existe un usuario con ese email")
		}
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "id inválido")
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, http.StatusNotFound, "Usuario no encontrado")
		}
		return internalError(c, err)
	}

	if err := h.DB.Delete(&user).Error; err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "Usuario eliminado correctamente"})
}
