package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/skateshop/storefront/internal/core/domain"
	"github.com/skateshop/storefront/internal/core/ports"
)

type stubProductService struct {
	listFn   func(ctx context.Context, search string) ([]domain.Product, error)
	getFn    func(ctx context.Context, id int64) (*domain.Product, error)
	createFn func(ctx context.Context, adminID int64, in ports.ProductInput, imageRef string) (*domain.Product, error)
	updateFn func(ctx context.Context, id int64, in ports.ProductInput, imageRef *string) (*domain.Product, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (s *stubProductService) ListProducts(ctx context.Context, search string) ([]domain.Product, error) {
	return s.listFn(ctx, search)
}

func (s *stubProductService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.getFn(ctx, id)
}

func (s *stubProductService) CreateProduct(ctx context.Context, adminID int64, in ports.ProductInput, imageRef string) (*domain.Product, error) {
	return s.createFn(ctx, adminID, in, imageRef)
}

func (s *stubProductService) UpdateProduct(ctx context.Context, id int64, in ports.ProductInput, imageRef *string) (*domain.Product, error) {
	return s.updateFn(ctx, id, in, imageRef)
}

func (s *stubProductService) DeleteProduct(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

type stubImageStore struct {
	saved   []string
	deleted []string
	saveErr error
}

func (s *stubImageStore) Save(_ context.Context, name string, _ int64, src io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	if _, err := io.ReadAll(src); err != nil {
		return "", err
	}
	ref := "1700000000000-" + name
	s.saved = append(s.saved, ref)
	return ref, nil
}

func (s *stubImageStore) Delete(_ context.Context, ref string) error {
	s.deleted = append(s.deleted, ref)
	return nil
}

func deckA() *domain.Product {
	return &domain.Product{
		ID:          3,
		Title:       "Deck A",
		Description: "8 inch maple",
		Stock:       5,
		Price:       decimal.RequireFromString("29.99"),
		AdminID:     1,
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// multipartForm builds a multipart body with the four text fields and, when
// image is non-empty, an "imagen" file.
func multipartForm(t *testing.T, fields map[string]string, image string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if image != "" {
		fw, err := w.CreateFormFile("imagen", image)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		_, _ = fw.Write([]byte("\x89PNG\r\n\x1a\n"))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

var deckFields = map[string]string{
	"titulo":   "Deck A",
	"detalle":  "8 inch maple",
	"cantidad": "5",
	"precio":   "29.99",
}

func TestProductHandler_List(t *testing.T) {
	stub := &stubProductService{
		listFn: func(ctx context.Context, search string) ([]domain.Product, error) {
			if search != "deck" {
				t.Fatalf("unexpected search %q", search)
			}
			p := deckA()
			p.Image = "1700000000000-deck.png"
			return []domain.Product{*p}, nil
		},
	}
	handler := NewProductHandler(stub, nil, zerolog.Nop())

	c, rec := newContext(t, http.MethodGet, "/api/products?search=deck", nil, "", &testBuyer)
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)

	body := rec.Body.String()
	if !strings.Contains(body, `"precio":29.99`) {
		t.Fatalf("expected numeric price, got %s", body)
	}
	if !strings.Contains(body, `"imagen":"/uploads/1700000000000-deck.png"`) {
		t.Fatalf("expected image url, got %s", body)
	}
}

func TestProductHandler_ListEmptyIsArray(t *testing.T) {
	stub := &stubProductService{
		listFn: func(ctx context.Context, search string) ([]domain.Product, error) {
			return []domain.Product{}, nil
		},
	}
	handler := NewProductHandler(stub, nil, zerolog.Nop())

	c, rec := newContext(t, http.MethodGet, "/api/products", nil, "", &testBuyer)
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("expected [], got %s", got)
	}
}

func TestProductHandler_Get(t *testing.T) {
	stub := &stubProductService{
		getFn: func(ctx context.Context, id int64) (*domain.Product, error) {
			if id != 3 {
				return nil, domain.ErrProductNotFound
			}
			return deckA(), nil
		},
	}
	handler := NewProductHandler(stub, nil, zerolog.Nop())

	c, rec := newContext(t, http.MethodGet, "/api/products/3", nil, "", &testBuyer)
	c.SetParamNames("id")
	c.SetParamValues("3")
	if err := handler.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)

	c, _ = newContext(t, http.MethodGet, "/api/products/4", nil, "", &testBuyer)
	c.SetParamNames("id")
	c.SetParamValues("4")
	if err := handler.Get(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	c, _ = newContext(t, http.MethodGet, "/api/products/abc", nil, "", &testBuyer)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	if err := handler.Get(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestProductHandler_Create_WithImage(t *testing.T) {
	images := &stubImageStore{}
	stub := &stubProductService{
		createFn: func(ctx context.Context, adminID int64, in ports.ProductInput, imageRef string) (*domain.Product, error) {
			if adminID != testAdmin.ID {
				t.Fatalf("expected admin id %d, got %d", testAdmin.ID, adminID)
			}
			if in.Title != "Deck A" || in.Quantity != "5" || in.Price != "29.99" {
				t.Fatalf("unexpected input: %+v", in)
			}
			if imageRef != "1700000000000-deck.png" {
				t.Fatalf("unexpected image ref %q", imageRef)
			}
			p := deckA()
			p.Image = imageRef
			return p, nil
		},
	}
	handler := NewProductHandler(stub, images, zerolog.Nop())

	body, ct := multipartForm(t, deckFields, "deck.png")
	c, rec := newContext(t, http.MethodPost, "/api/products", body, ct, &testAdmin)

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)

	var resp struct {
		Message string          `json:"message"`
		Product productResponse `json:"product"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Product.ID != 3 || resp.Product.Price.String() != "29.99" {
		t.Fatalf("unexpected product: %+v", resp.Product)
	}
	if len(images.deleted) != 0 {
		t.Fatalf("image should be kept, deleted %v", images.deleted)
	}
}

func TestProductHandler_Create_WithoutImage(t *testing.T) {
	stub := &stubProductService{
		createFn: func(ctx context.Context, adminID int64, in ports.ProductInput, imageRef string) (*domain.Product, error) {
			if imageRef != "" {
				t.Fatalf("expected no image, got %q", imageRef)
			}
			return deckA(), nil
		},
	}
	handler := NewProductHandler(stub, &stubImageStore{}, zerolog.Nop())

	body, ct := multipartForm(t, deckFields, "")
	c, rec := newContext(t, http.MethodPost, "/api/products", body, ct, &testAdmin)

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"imagen":null`) {
		t.Fatalf("expected null image, got %s", rec.Body.String())
	}
}

func TestProductHandler_Create_InvalidDiscardsUpload(t *testing.T) {
	images := &stubImageStore{}
	stub := &stubProductService{
		createFn: func(ctx context.Context, adminID int64, in ports.ProductInput, imageRef string) (*domain.Product, error) {
			return nil, domain.NewInputError("cantidad must be between 0 and 10000")
		},
	}
	handler := NewProductHandler(stub, images, zerolog.Nop())

	body, ct := multipartForm(t, deckFields, "deck.png")
	c, _ := newContext(t, http.MethodPost, "/api/products", body, ct, &testAdmin)

	if err := handler.Create(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(images.deleted) != 1 || images.deleted[0] != images.saved[0] {
		t.Fatalf("expected the upload to be discarded, saved=%v deleted=%v", images.saved, images.deleted)
	}
}

func TestProductHandler_Create_RejectedImage(t *testing.T) {
	images := &stubImageStore{saveErr: domain.NewInputError("only images are allowed")}
	stub := &stubProductService{
		createFn: func(ctx context.Context, adminID int64, in ports.ProductInput, imageRef string) (*domain.Product, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewProductHandler(stub, images, zerolog.Nop())

	body, ct := multipartForm(t, deckFields, "deck.exe")
	c, _ := newContext(t, http.MethodPost, "/api/products", body, ct, &testAdmin)

	if err := handler.Create(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestProductHandler_Update(t *testing.T) {
	tests := []struct {
		name      string
		image     string
		wantImage bool
	}{
		{"keeps image", "", false},
		{"replaces image", "new.png", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubProductService{
				updateFn: func(ctx context.Context, id int64, in ports.ProductInput, imageRef *string) (*domain.Product, error) {
					if id != 3 {
						t.Fatalf("unexpected id %d", id)
					}
					if (imageRef != nil) != tc.wantImage {
						t.Fatalf("unexpected image ref %v", imageRef)
					}
					return deckA(), nil
				},
			}
			handler := NewProductHandler(stub, &stubImageStore{}, zerolog.Nop())

			body, ct := multipartForm(t, deckFields, tc.image)
			c, rec := newContext(t, http.MethodPut, "/api/products/3", body, ct, &testAdmin)
			c.SetParamNames("id")
			c.SetParamValues("3")

			if err := handler.Update(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			assertStatus(t, rec, http.StatusOK)
		})
	}
}

func TestProductHandler_Update_NotFoundDiscardsUpload(t *testing.T) {
	images := &stubImageStore{}
	stub := &stubProductService{
		updateFn: func(ctx context.Context, id int64, in ports.ProductInput, imageRef *string) (*domain.Product, error) {
			return nil, domain.ErrProductNotFound
		},
	}
	handler := NewProductHandler(stub, images, zerolog.Nop())

	body, ct := multipartForm(t, deckFields, "new.png")
	c, _ := newContext(t, http.MethodPut, "/api/products/99", body, ct, &testAdmin)
	c.SetParamNames("id")
	c.SetParamValues("99")

	if err := handler.Update(c); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(images.deleted) != 1 {
		t.Fatalf("expected upload to be discarded")
	}
}

func TestProductHandler_Delete(t *testing.T) {
	deleted := int64(0)
	stub := &stubProductService{
		deleteFn: func(ctx context.Context, id int64) error {
			if id == 99 {
				return domain.ErrProductNotFound
			}
			deleted = id
			return nil
		},
	}
	handler := NewProductHandler(stub, nil, zerolog.Nop())

	c, rec := newContext(t, http.MethodDelete, "/api/products/3", nil, "", &testAdmin)
	c.SetParamNames("id")
	c.SetParamValues("3")
	if err := handler.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)
	if deleted != 3 {
		t.Fatalf("expected product 3 deleted, got %d", deleted)
	}

	c, _ = newContext(t, http.MethodDelete, "/api/products/99", nil, "", &testAdmin)
	c.SetParamNames("id")
	c.SetParamValues("99")
	if err := handler.Delete(c); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
