package ports

import (
	"context"

	"github.com/skateshop/storefront/internal/core/domain"
)

// RegisterInput carries the self-registration form.
type RegisterInput struct {
	FullName string
	Username string
	Email    string
	Password string
}

// AuthResult is returned by a successful registration or login.
type AuthResult struct {
	Token string
	User  *domain.User
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, login, password string) (*AuthResult, error)
}

// TokenIssuer issues and validates the signed bearer tokens that carry a
// domain.Principal.
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
	Parse(token string) (domain.Principal, error)
}
