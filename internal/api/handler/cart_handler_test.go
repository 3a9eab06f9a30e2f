package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/skateshop/storefront/internal/core/domain"
	"github.com/skateshop/storefront/internal/core/ports"
)

type stubCartService struct {
	getFn    func(ctx context.Context, userID int64) ([]domain.CartLineView, error)
	addFn    func(ctx context.Context, userID, productID int64, quantity int) (*ports.AddToCartResult, error)
	updateFn func(ctx context.Context, userID, lineID int64, quantity int) error
	removeFn func(ctx context.Context, userID, lineID int64) error
	clearFn  func(ctx context.Context, userID int64) error
}

func (s *stubCartService) GetCart(ctx context.Context, userID int64) ([]domain.CartLineView, error) {
	return s.getFn(ctx, userID)
}

func (s *stubCartService) AddToCart(ctx context.Context, userID, productID int64, quantity int) (*ports.AddToCartResult, error) {
	return s.addFn(ctx, userID, productID, quantity)
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, userID, lineID int64, quantity int) error {
	return s.updateFn(ctx, userID, lineID, quantity)
}

func (s *stubCartService) RemoveLine(ctx context.Context, userID, lineID int64) error {
	return s.removeFn(ctx, userID, lineID)
}

func (s *stubCartService) ClearCart(ctx context.Context, userID int64) error {
	return s.clearFn(ctx, userID)
}

func TestCartHandler_Get(t *testing.T) {
	stub := &stubCartService{
		getFn: func(ctx context.Context, userID int64) ([]domain.CartLineView, error) {
			if userID != testBuyer.ID {
				t.Fatalf("unexpected user %d", userID)
			}
			return []domain.CartLineView{{
				ID:        7,
				ProductID: 3,
				Quantity:  2,
				Title:     "Deck A",
				Stock:     5,
				Price:     decimal.RequireFromString("29.9"),
			}}, nil
		},
	}
	handler := NewCartHandler(stub)

	c, rec := newContext(t, http.MethodGet, "/api/cart", nil, "", &testBuyer)
	if err := handler.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)

	var lines []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &lines); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0]["quantity"] != float64(2) || lines[0]["stock"] != float64(5) {
		t.Fatalf("unexpected line: %v", lines[0])
	}
	if lines[0]["imagen"] != nil {
		t.Fatalf("expected null image, got %v", lines[0]["imagen"])
	}
	if !strings.Contains(rec.Body.String(), `"precio":29.90`) {
		t.Fatalf("expected two-decimal price, got %s", rec.Body.String())
	}
}

func TestCartHandler_Add(t *testing.T) {
	tests := []struct {
		name    string
		created bool
		wantMsg string
	}{
		{"new line", true, "product added to cart"},
		{"existing line", false, "cart updated"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubCartService{
				addFn: func(ctx context.Context, userID, productID int64, quantity int) (*ports.AddToCartResult, error) {
					if userID != testBuyer.ID || productID != 3 || quantity != 2 {
						t.Fatalf("unexpected call: user=%d product=%d qty=%d", userID, productID, quantity)
					}
					return &ports.AddToCartResult{LineID: 7, Quantity: 2, Created: tc.created}, nil
				},
			}
			handler := NewCartHandler(stub)

			c, rec := newContext(t, http.MethodPost, "/api/cart",
				strings.NewReader(`{"product_id":3,"quantity":2}`), echo.MIMEApplicationJSON, &testBuyer)
			if err := handler.Add(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			assertStatus(t, rec, http.StatusOK)

			var resp addToCartResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Message != tc.wantMsg || resp.ID != 7 || resp.Quantity != 2 {
				t.Fatalf("unexpected response: %+v", resp)
			}
		})
	}
}

func TestCartHandler_Add_Rejects(t *testing.T) {
	stub := &stubCartService{
		addFn: func(ctx context.Context, userID, productID int64, quantity int) (*ports.AddToCartResult, error) {
			if productID == 99 {
				return nil, domain.ErrProductNotFound
			}
			return nil, domain.ErrInsufficientStock
		},
	}
	handler := NewCartHandler(stub)

	tests := []struct {
		name     string
		body     string
		wantErr  error
		wantCode int
	}{
		{"missing product", `{"quantity":1}`, domain.ErrInvalidInput, 0},
		{"zero quantity", `{"product_id":3,"quantity":0}`, domain.ErrInvalidInput, 0},
		{"negative quantity", `{"product_id":3,"quantity":-1}`, domain.ErrInvalidInput, 0},
		{"unknown product", `{"product_id":99,"quantity":1}`, domain.ErrNotFound, 0},
		{"over stock", `{"product_id":3,"quantity":50}`, domain.ErrInsufficientStock, 0},
		{"bad payload", `{"product_id":"x"`, nil, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newContext(t, http.MethodPost, "/api/cart",
				strings.NewReader(tc.body), echo.MIMEApplicationJSON, &testBuyer)
			err := handler.Add(c)
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if tc.wantCode != 0 && httpErrorCode(err) != tc.wantCode {
				t.Fatalf("expected HTTP %d, got %v", tc.wantCode, err)
			}
		})
	}
}

func TestCartHandler_RequiresPrincipal(t *testing.T) {
	handler := NewCartHandler(&stubCartService{})

	c, _ := newContext(t, http.MethodGet, "/api/cart", nil, "", nil)
	if err := handler.Get(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestCartHandler_Update(t *testing.T) {
	stub := &stubCartService{
		updateFn: func(ctx context.Context, userID, lineID int64, quantity int) error {
			switch {
			case lineID == 404:
				return domain.ErrCartLineNotFound
			case quantity > 5:
				return domain.ErrInsufficientStock
			}
			return nil
		},
	}
	handler := NewCartHandler(stub)

	tests := []struct {
		name    string
		id      string
		body    string
		wantErr error
	}{
		{"ok", "7", `{"quantity":3}`, nil},
		{"over stock", "7", `{"quantity":6}`, domain.ErrInsufficientStock},
		{"zero", "7", `{"quantity":0}`, domain.ErrInvalidInput},
		{"foreign line", "404", `{"quantity":1}`, domain.ErrCartLineNotFound},
		{"bad id", "x", `{"quantity":1}`, domain.ErrInvalidInput},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newContext(t, http.MethodPut, "/api/cart/"+tc.id,
				strings.NewReader(tc.body), echo.MIMEApplicationJSON, &testBuyer)
			c.SetParamNames("id")
			c.SetParamValues(tc.id)

			err := handler.Update(c)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("handler error: %v", err)
				}
				assertStatus(t, rec, http.StatusOK)
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCartHandler_Remove(t *testing.T) {
	stub := &stubCartService{
		removeFn: func(ctx context.Context, userID, lineID int64) error {
			if lineID != 7 {
				return domain.ErrCartLineNotFound
			}
			return nil
		},
	}
	handler := NewCartHandler(stub)

	c, rec := newContext(t, http.MethodDelete, "/api/cart/7", nil, "", &testBuyer)
	c.SetParamNames("id")
	c.SetParamValues("7")
	if err := handler.Remove(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)

	var resp cartClearedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp)
	}

	c, _ = newContext(t, http.MethodDelete, "/api/cart/8", nil, "", &testBuyer)
	c.SetParamNames("id")
	c.SetParamValues("8")
	if err := handler.Remove(c); !errors.Is(err, domain.ErrCartLineNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCartHandler_Clear(t *testing.T) {
	cleared := int64(0)
	stub := &stubCartService{
		clearFn: func(ctx context.Context, userID int64) error {
			cleared = userID
			return nil
		},
	}
	handler := NewCartHandler(stub)

	c, rec := newContext(t, http.MethodDelete, "/api/cart", nil, "", &testBuyer)
	if err := handler.Clear(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)
	if cleared != testBuyer.ID {
		t.Fatalf("expected cart of %d cleared, got %d", testBuyer.ID, cleared)
	}
	if !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
