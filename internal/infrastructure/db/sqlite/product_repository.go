package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/skateshop/storefront/internal/core/domain"
	"github.com/skateshop/storefront/internal/core/ports"
)

const (
	productColumns = `id, titulo, detalle, cantidad, precio, imagen, admin_id, created_at`
	productOrder   = `ORDER BY created_at DESC, id DESC`
)

// ProductRepository implements ports.ProductRepository on SQLite.
type ProductRepository struct {
	db *sql.DB
}

var _ ports.ProductRepository = (*ProductRepository)(nil)

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products `+productOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	return collectProducts(rows)
}

func (r *ProductRepository) Search(ctx context.Context, term string) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE titulo LIKE ? ESCAPE '\' `+productOrder,
		"%"+escapeLike(term)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return collectProducts(rows)
}

func (r *ProductRepository) Get(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	created, err := scanProduct(r.db.QueryRowContext(ctx,
		`INSERT INTO products (titulo, detalle, cantidad, precio, imagen, admin_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 RETURNING `+productColumns,
		p.Title, p.Description, p.Stock, p.Price.StringFixed(domain.PriceScale),
		nullString(p.Image), p.AdminID, toMillis(p.CreatedAt),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}
	return created, nil
}

func (r *ProductRepository) Update(ctx context.Context, id int64, f domain.ProductFields, image *string) (*domain.Product, string, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}

	var newImage sql.NullString
	if image != nil {
		newImage = nullString(*image)
	}

	updated, err := scanProduct(r.db.QueryRowContext(ctx,
		`UPDATE products
		 SET titulo = ?, detalle = ?, cantidad = ?, precio = ?,
		     imagen = CASE WHEN ? THEN ? ELSE imagen END
		 WHERE id = ?
		 RETURNING `+productColumns,
		f.Title, f.Description, f.Stock, f.Price.StringFixed(domain.PriceScale),
		image != nil, newImage, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", domain.ErrProductNotFound
		}
		return nil, "", fmt.Errorf("failed to update product: %w", err)
	}
	return updated, current.Image, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) (string, error) {
	var image sql.NullString
	err := r.db.QueryRowContext(ctx, `DELETE FROM products WHERE id = ? RETURNING imagen`, id).Scan(&image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrProductNotFound
		}
		return "", fmt.Errorf("failed to delete product: %w", err)
	}
	return image.String, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p         domain.Product
		image     sql.NullString
		createdAt int64
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Stock, &p.Price, &image, &p.AdminID, &createdAt); err != nil {
		return nil, err
	}
	p.Image = image.String
	p.CreatedAt = fromMillis(createdAt)
	return &p, nil
}

func collectProducts(rows *sql.Rows) ([]domain.Product, error) {
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
