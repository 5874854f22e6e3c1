package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avelsk/storefront/internal/config"
	"github.com/avelsk/storefront/internal/hash"
	"github.com/avelsk/storefront/internal/models"
	"github.com/avelsk/storefront/internal/mykafka"
	cartsvc "github.com/avelsk/storefront/internal/service/cart"
	"github.com/avelsk/storefront/internal/service/catalog"
	ordersvc "github.com/avelsk/storefront/internal/service/order"
	"github.com/avelsk/storefront/internal/service/token"
)

type testEnv struct {
	db     *gorm.DB
	e      *echo.Echo
	tokens *token.TokenService
	carts  *cartsvc.Service
	orders *ordersvc.Service

	auth     *AuthHandler
	cart     *CartHandler
	order    *OrderHandler
	wishlist *WishlistHandler
	admin    *AdminHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	require.NoError(t, config.Migrate(db))

	tokens := &token.TokenService{
		DB:            db,
		JWTSecret:     []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
	}
	carts := &cartsvc.Service{DB: db}
	orders := &ordersvc.Service{DB: db}
	cats := &catalog.Service{DB: db}
	producer := &mykafka.Producer{}

	return &testEnv{
		db:     db,
		e:      echo.New(),
		tokens: tokens,
		carts:  carts,
		orders: orders,

		auth:     &AuthHandler{DB: db, Tokens: tokens, Cart: carts, Producer: producer},
		cart:     &CartHandler{Cart: carts, Producer: producer},
		order:    &OrderHandler{Cart: carts, Orders: orders, Producer: producer},
		wishlist: &WishlistHandler{DB: db, Catalog: cats},
		admin:    &AdminHandler{DB: db, Orders: orders, Producer: producer, UploadDir: t.TempDir()},
	}
}

// jsonContext builds an echo context carrying a JSON body, so handlers both
// bind the payload and answer in JSON.
func (env *testEnv) jsonContext(t *testing.T, method, target string, body any) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return env.e.NewContext(req, rec), rec
}

// formContext simulates a browser form post; handlers answer with redirects.
func (env *testEnv) formContext(t *testing.T, method, target string, form url.Values) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	return env.e.NewContext(req, rec), rec
}

func (env *testEnv) seedUser(t *testing.T, email, username, password, role string) *models.User {
	t.Helper()

	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)
	u := models.User{Email: email, Username: username, PasswordHash: pwHash, Role: role}
	require.NoError(t, env.db.Create(&u).Error)
	return &u
}

func (env *testEnv) seedProduct(t *testing.T, name string, price float64, stock int) *models.Product {
	t.Helper()

	p := models.Product{Name: name, Slug: name, Price: price, Stock: stock, IsActive: true}
	require.NoError(t, env.db.Create(&p).Error)
	return &p
}

// asUser mirrors what the session middleware puts into the context.
func asUser(c echo.Context, userID uint, role string) {
	c.Set("userID", userID)
	c.Set("role", role)
}

func (env *testEnv) cartFor(t *testing.T, userID uint) *models.Cart {
	t.Helper()

	crt, err := env.carts.GetOrCreate(context.Background(), cartsvc.Owner{UserID: userID})
	require.NoError(t, err)
	return crt
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func httpErrorCode(t *testing.T, err error) int {
	t.Helper()
	he := &echo.HTTPError{}
	require.ErrorAs(t, err, &he)
	return he.Code
}
