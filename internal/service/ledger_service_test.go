package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"goldbook/internal/models"
	"goldbook/internal/repository"
)

type ledgerStore struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	recorded []models.Transaction
	failWith error
}

func newLedgerStore(accounts ...*models.Account) *ledgerStore {
	store := &ledgerStore{accounts: make(map[string]*models.Account)}
	for _, acc := range accounts {
		store.accounts[acc.ID] = acc
	}
	return store
}

func (s *ledgerStore) GetByID(_ context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	copied := *acc
	return &copied, nil
}

// RecordPurchase mirrors the SQL transaction: insert plus in-place increment,
// both under one lock.
func (s *ledgerStore) RecordPurchase(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	acc, ok := s.accounts[tx.UserID]
	if !ok {
		return repository.ErrAccountNotFound
	}
	tx.TransactionDate = time.Now().UTC()
	s.recorded = append(s.recorded, *tx)
	acc.TotalGrams += tx.GramsPurchased
	acc.TotalAmountSpent += tx.TotalAmount
	return nil
}

func (s *ledgerStore) account(id string) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.accounts[id]
}

func snapshotAt(goldPrice float64, at time.Time) *models.PriceSnapshot {
	return &models.PriceSnapshot{
		GoldPricePerGram:   goldPrice,
		SilverPricePerGram: goldPrice / 80,
		UpdatedAt:          at,
	}
}

func newTestLedger(store *ledgerStore, maxQuoteAge time.Duration) *LedgerService {
	return NewLedgerService(store, store, maxQuoteAge, zap.NewNop())
}

func TestQuoteRejectsInvalidAmounts(t *testing.T) {
	ledger := newTestLedger(newLedgerStore(), 0)
	snapshot := snapshotAt(6000, time.Now())

	tests := []struct {
		name   string
		amount float64
	}{
		{"zero", 0},
		{"negative", -150},
		{"nan", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := ledger.Quote(tt.amount, snapshot)
			if !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("expected ErrInvalidAmount, got %v", err)
			}
			if quote != nil {
				t.Fatalf("expected no quote, got %+v", quote)
			}
		})
	}
}

func TestQuoteRejectsBadSnapshot(t *testing.T) {
	ledger := newTestLedger(newLedgerStore(), 0)

	if _, err := ledger.Quote(1000, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("nil snapshot: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := ledger.Quote(1000, snapshotAt(0, time.Now())); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero price: expected ErrInvalidAmount, got %v", err)
	}
}

func TestQuoteComputesRoundedWeight(t *testing.T) {
	ledger := newTestLedger(newLedgerStore(), 0)

	tests := []struct {
		name   string
		amount float64
		price  float64
		grams  float64
	}{
		{"exact division", 12000, 6000, 2.0000},
		{"repeating decimal rounds", 100, 6000, 0.0167},
		{"rounds down below midpoint", 1, 8000, 0.0001},
		{"midpoint rounds half-up", 0.0001, 2, 0.0001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := ledger.Quote(tt.amount, snapshotAt(tt.price, time.Now()))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if quote.Grams != tt.grams {
				t.Errorf("grams: got %v, want %v", quote.Grams, tt.grams)
			}
			if quote.CashAmount != tt.amount {
				t.Errorf("cash amount: got %v, want %v", quote.CashAmount, tt.amount)
			}
			if quote.PricePerGram != tt.price {
				t.Errorf("price: got %v, want %v", quote.PricePerGram, tt.price)
			}
		})
	}
}

func TestCommitRecordsTransactionAndAggregates(t *testing.T) {
	store := newLedgerStore(&models.Account{ID: "acc-1", BookID: "BK001", Name: "Asha"})
	ledger := newTestLedger(store, 0)

	quote, err := ledger.Quote(12000, snapshotAt(6000, time.Now()))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	tx, err := ledger.Commit(context.Background(), "acc-1", quote)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	if tx.ID == "" {
		t.Error("expected transaction id to be assigned")
	}
	if tx.BookID != "BK001" || tx.UserName != "Asha" {
		t.Errorf("snapshot fields: got %q/%q", tx.BookID, tx.UserName)
	}
	if tx.GramsPurchased != 2.0 || tx.TotalAmount != 12000 || tx.PricePerGram != 6000 {
		t.Errorf("unexpected amounts: %+v", tx)
	}
	if tx.TransactionDate.IsZero() {
		t.Error("expected transaction date to be set")
	}

	acc := store.account("acc-1")
	if acc.TotalGrams != 2.0 || acc.TotalAmountSpent != 12000 {
		t.Errorf("aggregates: grams=%v spent=%v", acc.TotalGrams, acc.TotalAmountSpent)
	}
}

func TestCommitUnknownAccount(t *testing.T) {
	ledger := newTestLedger(newLedgerStore(), 0)

	quote, err := ledger.Quote(500, snapshotAt(5000, time.Now()))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if _, err := ledger.Commit(context.Background(), "missing", quote); !errors.Is(err, repository.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestCommitRejectsStaleQuote(t *testing.T) {
	store := newLedgerStore(&models.Account{ID: "acc-1", BookID: "BK001", Name: "Asha"})
	ledger := newTestLedger(store, time.Minute)

	quote, err := ledger.Quote(500, snapshotAt(5000, time.Now().Add(-2*time.Minute)))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if _, err := ledger.Commit(context.Background(), "acc-1", quote); !errors.Is(err, ErrStaleQuote) {
		t.Fatalf("expected ErrStaleQuote, got %v", err)
	}
	if len(store.recorded) != 0 {
		t.Errorf("expected no recorded transactions, got %d", len(store.recorded))
	}
}

func TestCommitRejectsTamperedQuote(t *testing.T) {
	store := newLedgerStore(&models.Account{ID: "acc-1"})
	ledger := newTestLedger(store, 0)

	quote := &Quote{Grams: 5, CashAmount: 100, PricePerGram: 6000, SnapshotTime: time.Now()}
	if _, err := ledger.Commit(context.Background(), "acc-1", quote); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestConcurrentCommitsLoseNoUpdates(t *testing.T) {
	store := newLedgerStore(&models.Account{ID: "acc-1", BookID: "BK001", Name: "Asha"})
	ledger := newTestLedger(store, 0)

	const price = 6000.0
	amounts := []float64{12000, 3000, 600, 9000, 1500, 12000, 3000, 600, 9000, 1500}

	var wantGrams, wantSpent float64
	quotes := make([]*Quote, len(amounts))
	for i, amount := range amounts {
		quote, err := ledger.Quote(amount, snapshotAt(price, time.Now()))
		if err != nil {
			t.Fatalf("quote %v: %v", amount, err)
		}
		quotes[i] = quote
		wantGrams += quote.Grams
		wantSpent += amount
	}

	var wg sync.WaitGroup
	errs := make([]error, len(quotes))
	for i, quote := range quotes {
		wg.Add(1)
		go func(i int, q *Quote) {
			defer wg.Done()
			_, errs[i] = ledger.Commit(context.Background(), "acc-1", q)
		}(i, quote)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}

	acc := store.account("acc-1")
	if math.Abs(acc.TotalGrams-wantGrams) > 1e-9 {
		t.Errorf("total grams: got %v, want %v", acc.TotalGrams, wantGrams)
	}
	if math.Abs(acc.TotalAmountSpent-wantSpent) > 1e-9 {
		t.Errorf("total spent: got %v, want %v", acc.TotalAmountSpent, wantSpent)
	}
	if len(store.recorded) != len(amounts) {
		t.Errorf("recorded transactions: got %d, want %d", len(store.recorded), len(amounts))
	}

	var sumGrams, sumSpent float64
	for _, tx := range store.recorded {
		sumGrams += tx.GramsPurchased
		sumSpent += tx.TotalAmount
	}
	if math.Abs(acc.TotalGrams-sumGrams) > 1e-9 || math.Abs(acc.TotalAmountSpent-sumSpent) > 1e-9 {
		t.Errorf("aggregates diverge from transaction sums: grams %v vs %v, spent %v vs %v",
			acc.TotalGrams, sumGrams, acc.TotalAmountSpent, sumSpent)
	}
}

func TestCommitFailureLeavesNoTrace(t *testing.T) {
	store := newLedgerStore(&models.Account{ID: "acc-1"})
	store.failWith = errors.New("store offline")
	ledger := newTestLedger(store, 0)

	quote, err := ledger.Quote(600, snapshotAt(6000, time.Now()))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if _, err := ledger.Commit(context.Background(), "acc-1", quote); err == nil {
		t.Fatal("expected commit to fail")
	}

	acc := store.account("acc-1")
	if acc.TotalGrams != 0 || acc.TotalAmountSpent != 0 {
		t.Errorf("aggregates mutated on failed commit: %+v", acc)
	}
}
