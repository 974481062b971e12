package db

import (
	"context"
	"database/sql"
)

const schemaMigration = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS users (
    id uuid PRIMARY KEY,
    bookid text NOT NULL,
    name text NOT NULL,
    phone text NOT NULL,
    email text NOT NULL DEFAULT '',
    is_admin boolean NOT NULL DEFAULT false,
    password_hash text NOT NULL DEFAULT '',
    total_grams double precision NOT NULL DEFAULT 0 CHECK (total_grams >= 0),
    total_amount_spent double precision NOT NULL DEFAULT 0 CHECK (total_amount_spent >= 0),
    months_paid integer NOT NULL DEFAULT 0 CHECK (months_paid BETWEEN 0 AND 11),
    created_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS users_bookid_unique
ON users (bookid);

CREATE TABLE IF NOT EXISTS transactions (
    id uuid PRIMARY KEY,
    user_id uuid NOT NULL,
    bookid text NOT NULL,
    user_name text NOT NULL,
    grams_purchased double precision NOT NULL CHECK (grams_purchased > 0),
    price_per_gram double precision NOT NULL CHECK (price_per_gram > 0),
    total_amount double precision NOT NULL CHECK (total_amount > 0),
    transaction_date timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS transactions_user_id_idx
ON transactions (user_id, transaction_date DESC);
`

// RunMigration applies the idempotent schema. Transactions deliberately carry
// no foreign key to users: deleting an account must keep its history intact.
func RunMigration(ctx context.Context, pool *sql.DB) error {
	_, err := pool.ExecContext(ctx, schemaMigration)
	return err
}
