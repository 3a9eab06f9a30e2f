package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/skateshop/storefront/internal/core/ports"
)

// ProductHandler serves the catalog. Writes accept multipart forms with an
// optional "imagen" file.
type ProductHandler struct {
	service ports.ProductService
	images  ports.ImageStore
	log     zerolog.Logger
}

func NewProductHandler(service ports.ProductService, images ports.ImageStore, log zerolog.Logger) *ProductHandler {
	return &ProductHandler{service: service, images: images, log: log}
}

// List returns the catalog, newest first.
//
// @Summary      List products
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Case-insensitive title filter"
// @Success      200     {array}   productResponse
// @Failure      401     {object}  errorResponse
// @Failure      500     {object}  errorResponse
// @Router       /api/products [get]
func (h *ProductHandler) List(c echo.Context) error {
	products, err := h.service.ListProducts(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProductResponses(products))
}

// Get returns one product.
//
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  productResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, err := h.service.GetProduct(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProductResponse(p))
}

// Create adds a product owned by the calling admin.
//
// @Summary      Create a product
// @Tags         products
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        titulo    formData  string  true   "Title"
// @Param        detalle   formData  string  true   "Description"
// @Param        cantidad  formData  int     true   "Stock"
// @Param        precio    formData  number  true   "Price"
// @Param        imagen    formData  file    false  "Image (jpeg, jpg, png, gif, webp)"
// @Success      200       {object}  productMutationResponse
// @Failure      400       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	ref, err := h.saveUpload(c)
	if err != nil {
		return err
	}

	created, err := h.service.CreateProduct(ctx, p.ID, productForm(c), ref)
	if err != nil {
		h.discardUpload(ctx, ref)
		return err
	}

	return c.JSON(http.StatusOK, productMutationResponse{
		Message: "product created",
		Product: toProductResponse(created),
	})
}

// Update replaces the fields of a product. The stored image is kept unless a
// new one is uploaded.
//
// @Summary      Update a product
// @Tags         products
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        id        path      int     true   "Product ID"
// @Param        titulo    formData  string  true   "Title"
// @Param        detalle   formData  string  true   "Description"
// @Param        cantidad  formData  int     true   "Stock"
// @Param        precio    formData  number  true   "Price"
// @Param        imagen    formData  file    false  "Replacement image"
// @Success      200       {object}  productMutationResponse
// @Failure      400       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	ref, err := h.saveUpload(c)
	if err != nil {
		return err
	}

	var image *string
	if ref != "" {
		image = &ref
	}

	updated, err := h.service.UpdateProduct(ctx, id, productForm(c), image)
	if err != nil {
		h.discardUpload(ctx, ref)
		return err
	}

	return c.JSON(http.StatusOK, productMutationResponse{
		Message: "product updated",
		Product: toProductResponse(updated),
	})
}

// Delete removes a product and, through the schema, every cart line that
// references it.
//
// @Summary      Delete a product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteProduct(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "product deleted"})
}

func productForm(c echo.Context) ports.ProductInput {
	return ports.ProductInput{
		Title:       c.FormValue("titulo"),
		Description: c.FormValue("detalle"),
		Quantity:    c.FormValue("cantidad"),
		Price:       c.FormValue("precio"),
	}
}

// saveUpload stores the "imagen" file if one was sent and returns its
// reference, or "" when the form has no file.
func (h *ProductHandler) saveUpload(c echo.Context) (string, error) {
	fh, err := c.FormFile("imagen")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form").SetInternal(err)
	}
	if h.images == nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "image uploads are disabled")
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	return h.images.Save(c.Request().Context(), fh.Filename, fh.Size, f)
}

func (h *ProductHandler) discardUpload(ctx context.Context, ref string) {
	if ref == "" || h.images == nil {
		return
	}
	if err := h.images.Delete(ctx, ref); err != nil {
		h.log.Warn().Err(err).Str("image", ref).Msg("failed to discard upload")
	}
}
