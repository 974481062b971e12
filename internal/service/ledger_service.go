package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"goldbook/internal/models"
)

var (
	// ErrInvalidAmount rejects non-positive or non-finite purchase amounts.
	ErrInvalidAmount = errors.New("ledger: invalid amount")
	// ErrStaleQuote rejects commits whose price snapshot exceeds the configured age bound.
	ErrStaleQuote = errors.New("ledger: quote too old")
)

// gramsPrecision is the decimal places a purchased weight is rounded to.
const gramsPrecision = 4

// Quote is an unposted purchase computation. It carries the price captured at
// quote time; commit deliberately does not re-fetch the live price.
type Quote struct {
	Grams        float64   `json:"grams"`
	CashAmount   float64   `json:"cashAmount"`
	PricePerGram float64   `json:"pricePerGram"`
	SnapshotTime time.Time `json:"snapshotTime"`
}

// AccountGetter is the directory lookup the ledger needs before a commit.
type AccountGetter interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
}

// PurchaseRecorder persists a transaction and its aggregate increments atomically.
type PurchaseRecorder interface {
	RecordPurchase(ctx context.Context, tx *models.Transaction) error
}

// LedgerService converts cash amounts into recorded purchases.
type LedgerService struct {
	accounts    AccountGetter
	purchases   PurchaseRecorder
	maxQuoteAge time.Duration
	logger      *zap.Logger
}

// NewLedgerService builds the ledger. maxQuoteAge of zero disables the
// commit-time freshness check.
func NewLedgerService(accounts AccountGetter, purchases PurchaseRecorder, maxQuoteAge time.Duration, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		accounts:    accounts,
		purchases:   purchases,
		maxQuoteAge: maxQuoteAge,
		logger:      logger,
	}
}

// Quote computes the gold weight a cash amount buys at the snapshot price.
// Pure function, no side effects. Weight is rounded half-up to 4 decimal places.
func (s *LedgerService) Quote(cashAmount float64, snapshot *models.PriceSnapshot) (*Quote, error) {
	if !isPositiveFinite(cashAmount) {
		return nil, ErrInvalidAmount
	}
	if snapshot == nil || !isPositiveFinite(snapshot.GoldPricePerGram) {
		return nil, ErrInvalidAmount
	}

	grams := decimal.NewFromFloat(cashAmount).
		Div(decimal.NewFromFloat(snapshot.GoldPricePerGram)).
		Round(gramsPrecision)
	if !grams.IsPositive() {
		return nil, ErrInvalidAmount
	}

	weight, _ := grams.Float64()
	return &Quote{
		Grams:        weight,
		CashAmount:   cashAmount,
		PricePerGram: snapshot.GoldPricePerGram,
		SnapshotTime: snapshot.UpdatedAt,
	}, nil
}

// Commit posts the quoted purchase against the account: one transaction row
// plus in-place aggregate increments, both atomic. Returns the created
// transaction. The executed price is the quote's price, not the live one.
func (s *LedgerService) Commit(ctx context.Context, accountID string, quote *Quote) (*models.Transaction, error) {
	if quote == nil {
		return nil, ErrInvalidAmount
	}
	if err := validateQuote(quote); err != nil {
		return nil, err
	}
	if s.maxQuoteAge > 0 && !quote.SnapshotTime.IsZero() {
		if time.Since(quote.SnapshotTime) > s.maxQuoteAge {
			return nil, ErrStaleQuote
		}
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		ID:             uuid.NewString(),
		UserID:         account.ID,
		BookID:         account.BookID,
		UserName:       account.Name,
		GramsPurchased: quote.Grams,
		PricePerGram:   quote.PricePerGram,
		TotalAmount:    quote.CashAmount,
	}

	if err := s.purchases.RecordPurchase(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("purchase committed",
		zap.String("account_id", account.ID),
		zap.String("transaction_id", tx.ID),
		zap.Float64("grams", tx.GramsPurchased),
		zap.Float64("amount", tx.TotalAmount),
	)
	return tx, nil
}

func validateQuote(q *Quote) error {
	if !isPositiveFinite(q.CashAmount) || !isPositiveFinite(q.Grams) || !isPositiveFinite(q.PricePerGram) {
		return ErrInvalidAmount
	}
	// Amount must match grams*price up to the rounding the quote applied.
	tolerance := q.PricePerGram * math.Pow10(-gramsPrecision)
	if math.Abs(q.Grams*q.PricePerGram-q.CashAmount) > tolerance {
		return ErrInvalidAmount
	}
	return nil
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
