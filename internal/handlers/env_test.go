package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mercadito/tienda-backend/internal/config"
	"github.com/mercadito/tienda-backend/internal/hash"
	"github.com/mercadito/tienda-backend/internal/middleware/auth"
	"github.com/mercadito/tienda-backend/internal/models"
)

var testSecret = []byte("test_secret")

type testEnv struct {
	T        *testing.T
	E        *echo.Echo
	DB       *gorm.DB
	Auth     *auth.Middleware
	AuthH    *AuthHandler
	Users    *UserHandler
	Products *ProductHandler
	Orders   *OrderHandler
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	return &testEnv{
		T:        t,
		E:        echo.New(),
		DB:       db,
		Auth:     &auth.Middleware{JWTSecret: testSecret},
		AuthH:    &AuthHandler{DB: db, JWTSecret: testSecret},
		Users:    &UserHandler{DB: db},
		Products: &ProductHandler{DB: db},
		Orders:   &OrderHandler{DB: db},
	}
}

func (env *testEnv) createUser(name, email, role string) models.User {
	passwordHash, err := hash.HashPassword("password")
	require.NoError(env.T, err)
	user := models.User{Email: email, Name: name, PasswordHash: passwordHash, Role: role}
	require.NoError(env.T, env.DB.Create(&user).Error)
	return user
}

func (env *testEnv) createProduct(sku, name, category string, price float64, stock int) models.Product {
	prod := models.Product{
		SKU: sku, Name: name, Description: "d",
		Price: price, Stock: stock, Category: category, Available: true,
	}
	require.NoError(env.T, env.DB.Create(&prod).Error)
	return prod
}

func (env *testEnv) token(user models.User) string {
	tok, err := auth.SignToken(user.ID, user.Email, user.Name, user.Role, testSecret, time.Hour)
	require.NoError(env.T, err)
	return tok
}

type reqOpts struct {
	token  string
	admin  bool
	params [][2]string
}

// do runs a handler behind the same middleware chain the router uses.
func (env *testEnv) do(method, path string, body any, handler echo.HandlerFunc, opts reqOpts) (*httptest.ResponseRecorder, error) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if opts.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+opts.token)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	if len(opts.params) > 0 {
		names := make([]string, len(opts.params))
		values := make([]string, len(opts.params))
		for i, p := range opts.params {
			names[i], values[i] = p[0], p[1]
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}

	h := handler
	if opts.admin {
		h = env.Auth.AdminOnly(h)
	}
	if opts.token != "" {
		h = env.Auth.RequireLogin(h)
	}
	return rec, h(c)
}
