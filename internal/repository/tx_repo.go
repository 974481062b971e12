package repository

import (
	"context"
	"database/sql"

	"goldbook/internal/models"
)

// TransactionRepository persists purchase transactions.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository returns repository.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// RecordPurchase inserts the transaction row and bumps the owning account's
// running totals in one database transaction. The increment is applied in
// place, never read-modify-write, so concurrent purchases against the same
// account cannot lose an update. Either both writes land or neither does.
func (r *TransactionRepository) RecordPurchase(ctx context.Context, tx *models.Transaction) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	const insertQuery = `
		INSERT INTO transactions (id, user_id, bookid, user_name, grams_purchased, price_per_gram, total_amount, transaction_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING transaction_date
	`
	err = dbTx.QueryRowContext(ctx, insertQuery,
		tx.ID,
		tx.UserID,
		tx.BookID,
		tx.UserName,
		tx.GramsPurchased,
		tx.PricePerGram,
		tx.TotalAmount,
	).Scan(&tx.TransactionDate)
	if err != nil {
		return err
	}

	const updateQuery = `
		UPDATE users
		SET total_grams = total_grams + $2,
		    total_amount_spent = total_amount_spent + $3
		WHERE id = $1
	`
	result, err := dbTx.ExecContext(ctx, updateQuery, tx.UserID, tx.GramsPurchased, tx.TotalAmount)
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

	return dbTx.Commit()
}

// ListByUser returns the account's transactions, most recent first.
// Rows survive account deletion, so this works for deleted accounts too.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	const query = `
		SELECT id, user_id, bookid, user_name, grams_purchased, price_per_gram, total_amount, transaction_date
		FROM transactions
		WHERE user_id = $1
		ORDER BY transaction_date DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.BookID,
			&tx.UserName,
			&tx.GramsPurchased,
			&tx.PricePerGram,
			&tx.TotalAmount,
			&tx.TransactionDate,
		); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}
