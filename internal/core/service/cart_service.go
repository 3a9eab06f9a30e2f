package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/skateshop/storefront/internal/api/metrics"
	"github.com/skateshop/storefront/internal/core/domain"
	"github.com/skateshop/storefront/internal/core/ports"
)

// CartService implements the per-user cart. It never caches: every stock
// decision is made against a fresh store read.
type CartService struct {
	repo ports.CartRepository
	log  zerolog.Logger
}

func NewCartService(repo ports.CartRepository, log zerolog.Logger) *CartService {
	return &CartService{repo: repo, log: log}
}

func (s *CartService) GetCart(ctx context.Context, userID int64) ([]domain.CartLineView, error) {
	lines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return lines, nil
}

// AddToCart runs the stock-bounded upsert:
//  1. productID and quantity >= 1 are required;
//  2. the product must exist and hold at least quantity units;
//  3. an existing line grows to existing+quantity only if that stays within
//     stock, otherwise it is left unchanged;
//  4. without a line, a new one is inserted.
//
// The increment in step 3 is a single conditional statement, so concurrent
// adds for the same (user, product) cannot together exceed stock. An insert
// that loses the unique-key race to a concurrent insert is retried once as an
// increment.
func (s *CartService) AddToCart(ctx context.Context, userID, productID int64, quantity int) (*ports.AddToCartResult, error) {
	res, err := s.addToCart(ctx, userID, productID, quantity)
	metrics.CartAddsTotal.WithLabelValues(addOutcome(res, err)).Inc()
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Int64("user_id", userID).
		Int64("product_id", productID).
		Int("quantity", res.Quantity).
		Bool("created", res.Created).
		Msg("cart line written")
	return res, nil
}

func (s *CartService) addToCart(ctx context.Context, userID, productID int64, quantity int) (*ports.AddToCartResult, error) {
	if productID <= 0 || quantity < 1 {
		return nil, domain.NewInputError("product_id and a quantity of at least 1 are required")
	}

	stock, err := s.repo.ProductStock(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	if quantity > stock {
		return nil, domain.ErrInsufficientStock
	}

	for attempt := 0; ; attempt++ {
		line, err := s.repo.FindLine(ctx, userID, productID)
		switch {
		case err == nil:
			if line.Quantity+quantity > stock {
				return nil, domain.ErrInsufficientStock
			}
			newQty, err := s.repo.IncrementLine(ctx, line.ID, quantity)
			if err != nil {
				return nil, fmt.Errorf("add to cart: %w", err)
			}
			return &ports.AddToCartResult{LineID: line.ID, Quantity: newQty}, nil

		case errors.Is(err, domain.ErrCartLineNotFound):
			created, err := s.repo.InsertLine(ctx, userID, productID, quantity)
			if errors.Is(err, domain.ErrCartLineExists) && attempt == 0 {
				metrics.CartUpsertRetriesTotal.Inc()
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("add to cart: %w", err)
			}
			return &ports.AddToCartResult{LineID: created.ID, Quantity: created.Quantity, Created: true}, nil

		default:
			return nil, fmt.Errorf("add to cart: %w", err)
		}
	}
}

// UpdateQuantity sets the quantity of a line owned by userID. Callers that
// offer a "decrease" control must turn a quantity below 1 into RemoveLine;
// called directly, such a quantity is rejected.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, lineID int64, quantity int) error {
	if quantity < 1 {
		return domain.NewInputError("quantity must be at least 1")
	}

	line, err := s.repo.OwnedLine(ctx, userID, lineID)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	if quantity > line.Stock {
		return domain.ErrInsufficientStock
	}

	if err := s.repo.SetQuantity(ctx, userID, lineID, quantity); err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	return nil
}

func (s *CartService) RemoveLine(ctx context.Context, userID, lineID int64) error {
	n, err := s.repo.DeleteLine(ctx, userID, lineID)
	if err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	if n == 0 {
		return domain.ErrCartLineNotFound
	}
	return nil
}

// ClearCart empties the cart. An already empty cart is not an error.
func (s *CartService) ClearCart(ctx context.Context, userID int64) error {
	n, err := s.repo.Clear(ctx, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.log.Debug().Int64("user_id", userID).Int64("removed", n).Msg("cart cleared")
	return nil
}

func addOutcome(res *ports.AddToCartResult, err error) string {
	switch {
	case err == nil && res.Created:
		return "created"
	case err == nil:
		return "incremented"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}
