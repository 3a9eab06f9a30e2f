package handler

import (
	"encoding/json"
	"time"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// messageResponse is returned by operations that only report success.
type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type registerRequest struct {
	FullName string `json:"fullname" validate:"required,min=3"`
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

// loginRequest accepts the login in username; email is honoured when
// username is empty.
type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type authResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

type verifyResponse struct {
	User userResponse `json:"user"`
}

// --- Catalog ---

// Response-only types owned by the transport layer, kept apart from the
// domain so the JSON contract does not follow internal changes.

type productResponse struct {
	ID          int64       `json:"id"`
	Title       string      `json:"titulo"`
	Description string      `json:"detalle"`
	Quantity    int         `json:"cantidad"`
	Price       json.Number `json:"precio"     swaggertype:"number"`
	Image       *string     `json:"imagen"`
	AdminID     int64       `json:"admin_id"`
	CreatedAt   time.Time   `json:"created_at"`
}

type productMutationResponse struct {
	Message string          `json:"message"`
	Product productResponse `json:"product"`
}

// --- Cart ---

type addToCartRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity"   validate:"required,gte=1"`
}

type updateCartRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

type cartLineResponse struct {
	ID          int64       `json:"id"`
	ProductID   int64       `json:"product_id"`
	Quantity    int         `json:"quantity"`
	Title       string      `json:"titulo"`
	Description string      `json:"detalle"`
	Stock       int         `json:"stock"`
	Price       json.Number `json:"precio" swaggertype:"number"`
	Image       *string     `json:"imagen"`
	CreatedAt   time.Time   `json:"created_at"`
}

type addToCartResponse struct {
	Message  string `json:"message"`
	ID       int64  `json:"id"`
	Quantity int    `json:"quantity"`
}

type cartClearedResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
