package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"goldbook/internal/models"
)

// ErrAccountNotFound represents missing account rows.
var ErrAccountNotFound = errors.New("account not found")

// ErrDuplicateBookID is returned when a book id is already taken.
var ErrDuplicateBookID = errors.New("bookid already exists")

const pgUniqueViolation = "23505"

// AccountRepository handles CRUD for the users table.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository returns repository instance.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, bookid, name, phone, email, is_admin, total_grams, total_amount_spent, months_paid, created_at`

func scanAccount(row interface{ Scan(...any) error }) (*models.Account, error) {
	var acc models.Account
	err := row.Scan(
		&acc.ID,
		&acc.BookID,
		&acc.Name,
		&acc.Phone,
		&acc.Email,
		&acc.IsAdmin,
		&acc.TotalGrams,
		&acc.TotalAmountSpent,
		&acc.MonthsPaid,
		&acc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// Create inserts a new account. The caller assigns the id.
func (r *AccountRepository) Create(ctx context.Context, acc *models.Account, passwordHash string) error {
	const query = `
		INSERT INTO users (id, bookid, name, phone, email, is_admin, password_hash, total_grams, total_amount_spent, months_paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, 0, NOW())
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		acc.ID,
		acc.BookID,
		acc.Name,
		acc.Phone,
		acc.Email,
		acc.IsAdmin,
		passwordHash,
	).Scan(&acc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateBookID
		}
		return err
	}
	return nil
}

// GetByID fetches one account by id.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM users
		WHERE id = $1
		LIMIT 1
	`
	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

// GetByBookID fetches one account by its book identifier. Lookup is case-sensitive.
func (r *AccountRepository) GetByBookID(ctx context.Context, bookID string) (*models.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM users
		WHERE bookid = $1
		LIMIT 1
	`
	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, strings.TrimSpace(bookID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

// GetPasswordHash returns the stored admin credential hash for an account.
func (r *AccountRepository) GetPasswordHash(ctx context.Context, id string) (string, error) {
	const query = `
		SELECT password_hash
		FROM users
		WHERE id = $1
		LIMIT 1
	`
	var hash string
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrAccountNotFound
		}
		return "", err
	}
	return hash, nil
}

// List returns all accounts, optionally excluding administrators.
// Ordering is stable across calls absent mutation.
func (r *AccountRepository) List(ctx context.Context, includeAdmins bool) ([]models.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM users
		WHERE $1 OR NOT is_admin
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, includeAdmins)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Delete hard-deletes the account. Transaction history is kept.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// SetMonthsPaid updates the administrator-maintained months counter.
func (r *AccountRepository) SetMonthsPaid(ctx context.Context, id string, months int) error {
	const query = `UPDATE users SET months_paid = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, months)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}
