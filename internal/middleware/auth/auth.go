package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const claimsKey = "authClaims"

// Claims is the identity decoded from the bearer token. It is verified once
// by RequireLogin and travels through the request context, never re-parsed.
type Claims struct {
	UserID uint
	Email  string
	Name   string
	Role   string
}

// Middleware guards routes with the shared HMAC secret.
type Middleware struct {
	JWTSecret []byte
}

// RequireLogin verifies the Authorization bearer token and stores the decoded
// claims in the echo context. Missing, malformed or unverifiable tokens get
// 401 before the handler runs.
func (m *Middleware) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Error unauthorized")
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header || tokenString == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Error unauthorized")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.JWTSecret, nil
		})
		if err != nil || !token.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "Error unauthorized")
		}

		mapClaims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Error unauthorized")
		}
		idRaw, ok := mapClaims["_id"].(float64)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Error unauthorized")
		}

		claims := Claims{UserID: uint(idRaw)}
		claims.Email, _ = mapClaims["email"].(string)
		claims.Name, _ = mapClaims["nombre"].(string)
		claims.Role, _ = mapClaims["role"].(string)

		c.Set(claimsKey, claims)
		return next(c)
	}
}

// AdminOnly assumes RequireLogin already ran and rejects non-admin roles.
func (m *Middleware) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := FromContext(c)
		if err != nil {
			return err
		}
		if claims.Role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "Se requiere rol de administrador")
		}
		return next(c)
	}
}

// FromContext returns the claims attached by RequireLogin.
func FromContext(c echo.Context) (Claims, error) {
	claims, ok := c.Get(claimsKey).(Claims)
	if !ok {
		return Claims{}, echo.NewHTTPError(http.StatusUnauthorized, "Error unauthorized")
	}
	return claims, nil
}

// SignToken issues the bearer credential carrying {_id, email, nombre, role}.
func SignToken(userID uint, email, name, role string, secret []byte, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"_id":    userID,
		"email":  email,
		"nombre": name,
		"role":   role,
		"exp":    time.Now().Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}
