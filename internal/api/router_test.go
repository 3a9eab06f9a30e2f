package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skateshop/storefront/internal/api/handler"
	"github.com/skateshop/storefront/internal/core/service"
	"github.com/skateshop/storefront/internal/infrastructure/cache"
	"github.com/skateshop/storefront/internal/infrastructure/db/sqlite"
	"github.com/skateshop/storefront/internal/infrastructure/storage"
)

// newTestServer wires the real services over a temporary SQLite file, the
// in-process catalog cache and a temporary upload directory.
func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	ctx := context.Background()
	log := zerolog.Nop()

	db, err := sqlite.Open(ctx, sqlite.Config{Path: filepath.Join(t.TempDir(), "shop.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	images, err := storage.NewDiskImageStore(t.TempDir(), storage.DefaultMaxBytes)
	require.NoError(t, err)

	tokens := service.NewJWTIssuer("test-secret", time.Hour)
	authService := service.NewAuthService(sqlite.NewUserRepository(db), tokens, log)
	require.NoError(t, authService.SeedAdmin(ctx, "admin", "admin@skateboard.com", "admin123"))

	productService := service.NewProductService(
		sqlite.NewProductRepository(db),
		cache.NewMemoryProductCache(),
		log,
		service.WithImageRemover(images),
	)
	cartService := service.NewCartService(sqlite.NewCartRepository(db), log)

	return NewRouter(Dependencies{
		Log:            log,
		Tokens:         tokens,
		Auth:           authService,
		Products:       productService,
		Cart:           cartService,
		Images:         images,
		UploadDir:      images.Dir(),
		UploadMaxBytes: images.MaxBytes(),
		Readiness: map[string]handler.ReadinessCheck{
			"sqlite": db.PingContext,
		},
	})
}

func do(e *echo.Echo, method, path string, body io.Reader, contentType, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func doJSON(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	return do(e, method, path, strings.NewReader(body), echo.MIMEApplicationJSON, token)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func login(t *testing.T, e *echo.Echo, username, password string) string {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/api/login",
		fmt.Sprintf(`{"username":%q,"password":%q}`, username, password), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(t, rec)["token"].(string)
}

func registerBuyer(t *testing.T, e *echo.Echo, username string) string {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/api/register", fmt.Sprintf(
		`{"fullname":"Buyer %s","username":%q,"email":"%s@example.com","password":"Secret123"}`,
		username, username, username), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(t, rec)["token"].(string)
}

func productForm(t *testing.T, title, stock, price string, withImage bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("titulo", title))
	require.NoError(t, w.WriteField("detalle", title+" description"))
	require.NoError(t, w.WriteField("cantidad", stock))
	require.NoError(t, w.WriteField("precio", price))
	if withImage {
		fw, err := w.CreateFormFile("imagen", "deck.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func createProduct(t *testing.T, e *echo.Echo, token, title, stock, price string, withImage bool) map[string]any {
	t.Helper()
	body, ct := productForm(t, title, stock, price, withImage)
	rec := do(e, http.MethodPost, "/api/products", body, ct, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(t, rec)["product"].(map[string]any)
}

func TestRouter_Probes(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodGet, "/health", nil, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/health/ready", nil, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	rec = do(e, http.MethodGet, "/metrics", nil, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_cart_upsert_retries_total")
}

func TestRouter_Authentication(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodGet, "/api/products", nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token not provided", decode(t, rec)["error"])

	rec = do(e, http.MethodGet, "/api/products", nil, "", "not-a-jwt")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "invalid token", decode(t, rec)["error"])

	rec = doJSON(e, http.MethodPost, "/api/login", `{"username":"admin","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/login", `{"username":"ghost","password":"whatever"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decode(t, rec)["error"])

	token := registerBuyer(t, e, "alice")
	rec = do(e, http.MethodGet, "/api/verify", nil, "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "buyer", user["role"])

	rec = doJSON(e, http.MethodPost, "/api/register",
		`{"fullname":"Alice Again","username":"alice","email":"other@example.com","password":"Secret123"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username or email already registered", decode(t, rec)["error"])

	rec = doJSON(e, http.MethodPost, "/api/register",
		`{"fullname":"Alice Twin","username":"alice2","email":"alice@example.com","password":"Secret123"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_RoleGuards(t *testing.T) {
	e := newTestServer(t)
	admin := login(t, e, "admin", "admin123")
	buyer := registerBuyer(t, e, "bob")

	body, ct := productForm(t, "Deck A", "5", "29.99", false)
	rec := do(e, http.MethodPost, "/api/products", body, ct, buyer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "access forbidden", decode(t, rec)["error"])

	rec = do(e, http.MethodDelete, "/api/products/1", nil, "", buyer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(e, http.MethodGet, "/api/cart", nil, "", admin)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(e, http.MethodGet, "/api/products", nil, "", buyer)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestRouter_CatalogAndCart(t *testing.T) {
	e := newTestServer(t)
	admin := login(t, e, "admin", "admin123")
	buyer := registerBuyer(t, e, "carol")

	product := createProduct(t, e, admin, "Deck A", "5", "29.99", true)
	productID := int64(product["id"].(float64))
	assert.Equal(t, 29.99, product["precio"])

	imageURL, ok := product["imagen"].(string)
	require.True(t, ok, "expected an image url, got %v", product["imagen"])
	rec := do(e, http.MethodGet, imageURL, nil, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	createProduct(t, e, admin, "Wheels", "10", "15", false)

	rec = do(e, http.MethodGet, "/api/products", nil, "", buyer)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Wheels", list[0]["titulo"])
	assert.Nil(t, list[0]["imagen"])

	rec = do(e, http.MethodGet, "/api/products?search=deck", nil, "", buyer)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	add := func(qty int) *httptest.ResponseRecorder {
		return doJSON(e, http.MethodPost, "/api/cart",
			fmt.Sprintf(`{"product_id":%d,"quantity":%d}`, productID, qty), buyer)
	}

	rec = add(2)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "product added to cart", decode(t, rec)["message"])

	rec = add(3)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cart updated", decode(t, rec)["message"])
	assert.Equal(t, float64(5), decode(t, rec)["quantity"])

	rec = add(1)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "insufficient stock", decode(t, rec)["error"])

	rec = doJSON(e, http.MethodPost, "/api/cart", `{"product_id":9999,"quantity":1}`, buyer)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodGet, "/api/cart", nil, "", buyer)
	require.Equal(t, http.StatusOK, rec.Code)
	var cart []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	require.Len(t, cart, 1)
	assert.Equal(t, float64(5), cart[0]["quantity"])
	lineID := int64(cart[0]["id"].(float64))

	rec = doJSON(e, http.MethodPut, fmt.Sprintf("/api/cart/%d", lineID), `{"quantity":6}`, buyer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPut, fmt.Sprintf("/api/cart/%d", lineID), `{"quantity":1}`, buyer)
	assert.Equal(t, http.StatusOK, rec.Code)

	other := registerBuyer(t, e, "dave")
	rec = do(e, http.MethodDelete, fmt.Sprintf("/api/cart/%d", lineID), nil, "", other)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodDelete, fmt.Sprintf("/api/products/%d", productID), nil, "", admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/api/cart", nil, "", buyer)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = do(e, http.MethodDelete, "/api/cart", nil, "", buyer)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["success"])
}

func TestRouter_ProductValidation(t *testing.T) {
	e := newTestServer(t)
	admin := login(t, e, "admin", "admin123")

	body, ct := productForm(t, "Deck A", "-1", "29.99", false)
	rec := do(e, http.MethodPost, "/api/products", body, ct, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = productForm(t, "Deck A", "5", "abc", false)
	rec = do(e, http.MethodPost, "/api/products", body, ct, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = productForm(t, "Deck A", "5", "29.99", false)
	rec = do(e, http.MethodPut, "/api/products/9999", body, ct, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
