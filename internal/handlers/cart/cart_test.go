package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mercadito/tienda-backend/internal/config"
	"github.com/mercadito/tienda-backend/internal/middleware/auth"
	"github.com/mercadito/tienda-backend/internal/models"
)

type testEnv struct {
	T    *testing.T
	E    *echo.Echo
	DB   *gorm.DB
	H    *CartHandler
	Auth *auth.Middleware
}

var testSecret = []byte("test_secret")

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	return &testEnv{
		T:    t,
		E:    echo.New(),
		DB:   db,
		H:    &CartHandler{DB: db},
		Auth: &auth.Middleware{JWTSecret: testSecret},
	}
}

func (env *testEnv) createUser(name, email string) models.User {
	user := models.User{Email: email, Name: name, PasswordHash: "x", Role: "user"}
	require.NoError(env.T, env.DB.Create(&user).Error)
	return user
}

func (env *testEnv) createProduct(name string, price float64, stock int) models.Product {
	prod := models.Product{
		SKU:         "sku-" + name,
		Name:        name,
		Description: "d",
		Price:       price,
		Stock:       stock,
		Category:    "general",
		Available:   true,
	}
	require.NoError(env.T, env.DB.Create(&prod).Error)
	return prod
}

func (env *testEnv) token(user models.User) string {
	tok, err := auth.SignToken(user.ID, user.Email, user.Name, user.Role, testSecret, time.Hour)
	require.NoError(env.T, err)
	return tok
}

// do runs the handler behind the access gate, the way the router mounts it.
func (env *testEnv) do(method, path, token string, body any, handler echo.HandlerFunc) (*httptest.ResponseRecorder, echo.Context, error) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	err := env.Auth.RequireLogin(handler)(c)
	return rec, c, err
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) models.Cart {
	var cart models.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	return cart
}

func TestGetCartCreatesPendingCart(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("Ana", "ana@example.com")

	rec, _, err := env.do(http.MethodGet, "/carrito", env.token(user), nil, env.H.GetCart)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	cart := decodeCart(t, rec)
	require.Equal(t, models.CartStatusPending, cart.Status)
	require.Equal(t, user.ID, cart.User.ID)
	require.Equal(t, "ana@example.com", cart.User.Email)
	require.Equal(t, "Ana", cart.User.Name)
	require.Empty(t, cart.Items)

	// a second fetch returns the same cart, not a new one
	rec2, _, err := env.do(http.MethodGet, "/carrito", env.token(user), nil, env.H.GetCart)
	require.NoError(t, err)
	require.Equal(t, cart.ID, decodeCart(t, rec2).ID)
}

func TestGetCartUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	ghost := models.User{Email: "ghost@example.com", Name: "Ghost"}
	ghost.ID = 99

	rec, _, err := env.do(http.MethodGet, "/carrito", env.token(ghost), nil, env.H.GetCart)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Usuario no encontrado")
}

func TestAddItemReplacesQuantity(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("Ana", "ana@example.com")
	prod := env.createProduct("teclado", 25, 10)

	body := map[string]any{"producto": prod.ID, "cantidad": 2}
	rec, _, err := env.do(http.MethodPost, "/carrito", env.token(user), body, env.H.AddItem)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	cart := decodeCart(t, rec)
	require.Len(t, cart.Items, 1)
	require.Equal(t, uint(2), cart.Items[0].Quantity)

	// upsert replaces, never increments
	body["cantidad"] = 5
	rec, _, err = env.do(http.MethodPost, "/carrito", env.token(user), body, env.H.AddItem)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	cart = decodeCart(t, rec)
	require.Len(t, cart.Items, 1)
	require.Equal(t, uint(5), cart.Items[0].Quantity)
	require.NotNil(t, cart.Items[0].Product)
	require.Equal(t, "teclado", cart.Items[0].Product.Name)
}

func TestAddItemUnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("Ana", "ana@example.com")

	body := map[string]any{"producto": 123, "cantidad": 1}
	rec, _, err := env.do(http.MethodPost, "/carrito", env.token(user), body, env.H.AddItem)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Producto no encontrado")
}

func TestAddItemExceedsStock(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("Ana", "ana@example.com")
	prod := env.createProduct("mouse", 10, 5)

	body := map[string]any{"producto": prod.ID, "cantidad": 6}
	rec, _, err := env.do(http.MethodPost, "/carrito", env.token(user), body, env.H.AddItem)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Solo hay 5 unidades disponibles")
}

func TestAddItemZeroQuantity(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("Ana", "ana@example.com")
	prod := env.createProduct("mouse", 10, 5)

	body := map[string]any{"producto": prod.ID, "cantidad": 0}
	rec, _, err := env.do(http.MethodPost, "/carrito", env.token(user), body, env.H.AddItem)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveItemIdempotent(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("Ana", "ana@example.com")
	prod := env.createProduct("mouse", 10, 5)

	body := map[string]any{"producto": prod.ID, "cantidad": 2}
	_, _, err := env.do(http.MethodPost, "/carrito", env.token(user), body, env.H.AddItem)
	require.NoError(t, err)

	remove := func(param string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, "/carrito/"+param, nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+env.token(user))
		rec := httptest.NewRecorder()
		c := env.E.NewContext(req, rec)
		c.SetParamNames("productoId")
		c.SetParamValues(param)
		require.NoError(t, env.Auth.RequireLogin(env.H.RemoveItem)(c))
		return rec
	}

	// removing a product that is not in the cart is a no-op
	rec := remove("777")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeCart(t, rec).Items, 1)

	rec = remove(fmt.Sprint(prod.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeCart(t, rec).Items)
}

func TestClearCart(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("Ana", "ana@example.com")
	prod := env.createProduct("mouse", 10, 5)

	body := map[string]any{"producto": prod.ID, "cantidad": 2}
	_, _, err := env.do(http.MethodPost, "/carrito", env.token(user), body, env.H.AddItem)
	require.NoError(t, err)

	rec, _, err := env.do(http.MethodDelete, "/carrito", env.token(user), nil, env.H.Clear)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeCart(t, rec).Items)

	var count int64
	env.DB.Model(&models.CartItem{}).Count(&count)
	require.Zero(t, count)
}

func TestClearCartWithoutCart(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("Ana", "ana@example.com")

	rec, _, err := env.do(http.MethodDelete, "/carrito", env.token(user), nil, env.H.Clear)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Carrito no encontrado")
}
