package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/skateshop/storefront/internal/core/domain"
	"github.com/skateshop/storefront/internal/core/ports"
)

const userColumns = `id, username, email, fullname, password_hash, role, created_at`

// UserRepository implements ports.UserRepository on SQLite.
type UserRepository struct {
	db *sql.DB
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, fullname, password_hash, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.Username, user.Email, user.FullName, user.PasswordHash, string(user.Role), toMillis(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert user: last id: %w", err)
	}

	created := *user
	created.ID = id
	created.CreatedAt = fromMillis(toMillis(user.CreatedAt))
	return &created, nil
}

// FindByLogin prefers an exact username match over an email match.
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE username = ? OR email = ?
		 ORDER BY (username = ?) DESC
		 LIMIT 1`,
		login, login, login,
	)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) CreateIfAbsent(ctx context.Context, user *domain.User) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (username, email, fullname, password_hash, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.Username, user.Email, user.FullName, user.PasswordHash, string(user.Role), toMillis(user.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("insert user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert user: rows affected: %w", err)
	}
	return n > 0, nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u         domain.User
		role      string
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &role, &createdAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}
