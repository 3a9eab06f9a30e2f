package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/skateshop/storefront/internal/core/domain"
	"github.com/skateshop/storefront/internal/core/ports"
)

// CartRepository implements ports.CartRepository on SQLite. Uniqueness of
// (user_id, product_id) is enforced by the schema.
type CartRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.CartRepository = (*CartRepository)(nil)

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db, now: time.Now}
}

func (r *CartRepository) ListByUser(ctx context.Context, userID int64) ([]domain.CartLineView, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.product_id, c.quantity, p.titulo, p.detalle, p.cantidad, p.precio, p.imagen, c.created_at
		 FROM cart c
		 INNER JOIN products p ON c.product_id = p.id
		 WHERE c.user_id = ?
		 ORDER BY c.created_at DESC, c.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.CartLineView, 0)
	for rows.Next() {
		var (
			v         domain.CartLineView
			image     sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Quantity, &v.Title, &v.Description, &v.Stock, &v.Price, &image, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		v.Image = image.String
		v.CreatedAt = fromMillis(createdAt)
		lines = append(lines, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return lines, nil
}

func (r *CartRepository) ProductStock(ctx context.Context, productID int64) (int, error) {
	var stock int
	err := r.db.QueryRowContext(ctx, `SELECT cantidad FROM products WHERE id = ?`, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrProductNotFound
		}
		return 0, fmt.Errorf("failed to read stock: %w", err)
	}
	return stock, nil
}

func (r *CartRepository) FindLine(ctx context.Context, userID, productID int64) (*domain.CartLine, error) {
	var (
		l         domain.CartLine
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, product_id, quantity, created_at FROM cart WHERE user_id = ? AND product_id = ?`,
		userID, productID,
	).Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCartLineNotFound
		}
		return nil, fmt.Errorf("failed to find cart line: %w", err)
	}
	l.CreatedAt = fromMillis(createdAt)
	return &l, nil
}

func (r *CartRepository) InsertLine(ctx context.Context, userID, productID int64, quantity int) (*domain.CartLine, error) {
	createdAt := toMillis(r.now())
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO cart (user_id, product_id, quantity, created_at) VALUES (?, ?, ?, ?)`,
		userID, productID, quantity, createdAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, domain.ErrCartLineExists
		case isForeignKeyViolation(err):
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to insert cart line: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to insert cart line: last id: %w", err)
	}
	return &domain.CartLine{
		ID:        id,
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: fromMillis(createdAt),
	}, nil
}

func (r *CartRepository) IncrementLine(ctx context.Context, lineID int64, delta int) (int, error) {
	var quantity int
	err := r.db.QueryRowContext(ctx,
		`UPDATE cart SET quantity = quantity + ?
		 WHERE id = ?
		   AND quantity + ? <= (SELECT cantidad FROM products WHERE products.id = cart.product_id)
		 RETURNING quantity`,
		delta, lineID, delta,
	).Scan(&quantity)
	if err == nil {
		return quantity, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to increment cart line: %w", err)
	}

	exists, err := r.lineExists(ctx, `SELECT EXISTS (SELECT 1 FROM cart WHERE id = ?)`, lineID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, domain.ErrCartLineNotFound
	}
	return 0, domain.ErrInsufficientStock
}

func (r *CartRepository) OwnedLine(ctx context.Context, userID, lineID int64) (*domain.CartLineStock, error) {
	var l domain.CartLineStock
	err := r.db.QueryRowContext(ctx,
		`SELECT c.id, c.product_id, c.quantity, p.cantidad
		 FROM cart c
		 INNER JOIN products p ON c.product_id = p.id
		 WHERE c.id = ? AND c.user_id = ?`,
		lineID, userID,
	).Scan(&l.LineID, &l.ProductID, &l.Quantity, &l.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCartLineNotFound
		}
		return nil, fmt.Errorf("failed to verify cart line: %w", err)
	}
	return &l, nil
}

// SetQuantity only writes when quantity is within the product's current
// stock.
func (r *CartRepository) SetQuantity(ctx context.Context, userID, lineID int64, quantity int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cart SET quantity = ?
		 WHERE id = ? AND user_id = ?
		   AND ? <= (SELECT cantidad FROM products WHERE products.id = cart.product_id)`,
		quantity, lineID, userID, quantity,
	)
	if err != nil {
		return fmt.Errorf("failed to update cart line: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update cart line: rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	exists, err := r.lineExists(ctx, `SELECT EXISTS (SELECT 1 FROM cart WHERE id = ? AND user_id = ?)`, lineID, userID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrCartLineNotFound
	}
	return domain.ErrInsufficientStock
}

func (r *CartRepository) DeleteLine(ctx context.Context, userID, lineID int64) (int64, error) {
	return r.exec(ctx, `DELETE FROM cart WHERE id = ? AND user_id = ?`, lineID, userID)
}

func (r *CartRepository) Clear(ctx context.Context, userID int64) (int64, error) {
	return r.exec(ctx, `DELETE FROM cart WHERE user_id = ?`, userID)
}

func (r *CartRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cart lines: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete cart lines: rows affected: %w", err)
	}
	return n, nil
}

func (r *CartRepository) lineExists(ctx context.Context, query string, args ...any) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check cart line: %w", err)
	}
	return exists, nil
}
