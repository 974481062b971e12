package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"goldbook/internal/models"
	"goldbook/internal/password"
	"goldbook/internal/repository"
)

type sessionDirectory struct {
	byID     map[string]*models.Account
	byBookID map[string]*models.Account
	hashes   map[string]string
	failWith error
}

func newSessionDirectory(accounts ...*models.Account) *sessionDirectory {
	dir := &sessionDirectory{
		byID:     make(map[string]*models.Account),
		byBookID: make(map[string]*models.Account),
		hashes:   make(map[string]string),
	}
	for _, acc := range accounts {
		dir.byID[acc.ID] = acc
		dir.byBookID[acc.BookID] = acc
	}
	return dir
}

func (d *sessionDirectory) GetByID(_ context.Context, id string) (*models.Account, error) {
	if d.failWith != nil {
		return nil, d.failWith
	}
	acc, ok := d.byID[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	copied := *acc
	return &copied, nil
}

func (d *sessionDirectory) GetByBookID(_ context.Context, bookID string) (*models.Account, error) {
	if d.failWith != nil {
		return nil, d.failWith
	}
	acc, ok := d.byBookID[bookID]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	copied := *acc
	return &copied, nil
}

func (d *sessionDirectory) GetPasswordHash(_ context.Context, id string) (string, error) {
	if d.failWith != nil {
		return "", d.failWith
	}
	if _, ok := d.byID[id]; !ok {
		return "", repository.ErrAccountNotFound
	}
	return d.hashes[id], nil
}

type memorySessionStore struct {
	mu        sync.Mutex
	persisted *models.Account
	saveErr   error
	deleteErr error
}

func (s *memorySessionStore) Save(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	copied := *account
	s.persisted = &copied
	return nil
}

func (s *memorySessionStore) Load(_ context.Context) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persisted == nil {
		return nil, ErrNoSession
	}
	copied := *s.persisted
	return &copied, nil
}

func (s *memorySessionStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.persisted = nil
	return nil
}

func newTestSessions(dir *sessionDirectory, store *memorySessionStore) *SessionService {
	tokens := NewTokenService("test-secret", time.Hour)
	return NewSessionService(dir, store, tokens, password.NewBcryptHasher(4), zap.NewNop())
}

func memberAccount() *models.Account {
	return &models.Account{ID: "acc-1", BookID: "BK001", Name: "Asha", Phone: "9000000001"}
}

func TestAuthenticateCachesAndPersists(t *testing.T) {
	dir := newSessionDirectory(memberAccount())
	store := &memorySessionStore{}
	sessions := newTestSessions(dir, store)

	account, token, err := sessions.Authenticate(context.Background(), "BK001")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if token == "" {
		t.Error("expected a session token")
	}
	if account.ID != "acc-1" {
		t.Errorf("account: got %q", account.ID)
	}

	cached, ok := sessions.Current()
	if !ok || cached.ID != "acc-1" {
		t.Errorf("cached session: ok=%v acc=%+v", ok, cached)
	}
	if store.persisted == nil || store.persisted.ID != "acc-1" {
		t.Errorf("persisted session: %+v", store.persisted)
	}
}

func TestAuthenticateUnknownBookIDKeepsExistingSession(t *testing.T) {
	dir := newSessionDirectory(memberAccount())
	store := &memorySessionStore{}
	sessions := newTestSessions(dir, store)

	if _, _, err := sessions.Authenticate(context.Background(), "BK001"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	_, _, err := sessions.Authenticate(context.Background(), "UNKNOWN")
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}

	cached, ok := sessions.Current()
	if !ok || cached.ID != "acc-1" {
		t.Errorf("existing session should be untouched: ok=%v acc=%+v", ok, cached)
	}
}

func TestAuthenticateEmptyBookID(t *testing.T) {
	sessions := newTestSessions(newSessionDirectory(), &memorySessionStore{})

	if _, _, err := sessions.Authenticate(context.Background(), "   "); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestRefreshOverwritesCache(t *testing.T) {
	acc := memberAccount()
	dir := newSessionDirectory(acc)
	store := &memorySessionStore{}
	sessions := newTestSessions(dir, store)

	if _, _, err := sessions.Authenticate(context.Background(), "BK001"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	acc.TotalGrams = 2.5
	acc.TotalAmountSpent = 15000

	refreshed, err := sessions.Refresh(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.TotalGrams != 2.5 {
		t.Errorf("refreshed grams: got %v", refreshed.TotalGrams)
	}

	cached, _ := sessions.Current()
	if cached.TotalGrams != 2.5 || cached.TotalAmountSpent != 15000 {
		t.Errorf("cache not overwritten: %+v", cached)
	}
}

func TestRefreshFailureRetainsPreviousSession(t *testing.T) {
	dir := newSessionDirectory(memberAccount())
	store := &memorySessionStore{}
	sessions := newTestSessions(dir, store)

	if _, _, err := sessions.Authenticate(context.Background(), "BK001"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	dir.failWith = errors.New("store unreachable")
	if _, err := sessions.Refresh(context.Background(), "acc-1"); err == nil {
		t.Fatal("expected refresh to fail")
	}

	cached, ok := sessions.Current()
	if !ok || cached.ID != "acc-1" {
		t.Errorf("stale session should remain available: ok=%v acc=%+v", ok, cached)
	}
}

func TestSignOutThenRestoreAbsent(t *testing.T) {
	dir := newSessionDirectory(memberAccount())
	store := &memorySessionStore{}
	sessions := newTestSessions(dir, store)

	if _, _, err := sessions.Authenticate(context.Background(), "BK001"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	sessions.SignOut(context.Background())

	if _, ok := sessions.Current(); ok {
		t.Error("expected in-memory session cleared")
	}
	if _, err := sessions.Restore(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestSignOutClearsMemoryEvenWhenStoreFails(t *testing.T) {
	dir := newSessionDirectory(memberAccount())
	store := &memorySessionStore{deleteErr: errors.New("redis down")}
	sessions := newTestSessions(dir, store)

	if _, _, err := sessions.Authenticate(context.Background(), "BK001"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	sessions.SignOut(context.Background())

	if _, ok := sessions.Current(); ok {
		t.Error("expected in-memory session cleared despite store failure")
	}
}

func TestRestoreLoadsPersistedSession(t *testing.T) {
	store := &memorySessionStore{persisted: memberAccount()}
	sessions := newTestSessions(newSessionDirectory(), store)

	account, err := sessions.Restore(context.Background())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if account.ID != "acc-1" {
		t.Errorf("restored account: %+v", account)
	}
	if cached, ok := sessions.Current(); !ok || cached.ID != "acc-1" {
		t.Errorf("restore should populate memory: ok=%v", ok)
	}
}

func TestAdminLogin(t *testing.T) {
	hasher := password.NewBcryptHasher(4)
	hash, err := hasher.Hash("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	admin := &models.Account{ID: "adm-1", BookID: "ADMIN1", Name: "Owner", IsAdmin: true}
	member := memberAccount()
	dir := newSessionDirectory(admin, member)
	dir.hashes["adm-1"] = hash
	sessions := newTestSessions(dir, &memorySessionStore{})

	t.Run("success", func(t *testing.T) {
		account, token, err := sessions.AuthenticateAdmin(context.Background(), "ADMIN1", "s3cret")
		if err != nil {
			t.Fatalf("admin login: %v", err)
		}
		if token == "" || !account.IsAdmin {
			t.Errorf("expected admin token, got token=%q admin=%v", token, account.IsAdmin)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, _, err := sessions.AuthenticateAdmin(context.Background(), "ADMIN1", "nope"); !errors.Is(err, ErrInvalidCredential) {
			t.Fatalf("expected ErrInvalidCredential, got %v", err)
		}
	})

	t.Run("non-admin account", func(t *testing.T) {
		if _, _, err := sessions.AuthenticateAdmin(context.Background(), "BK001", "s3cret"); !errors.Is(err, ErrInvalidCredential) {
			t.Fatalf("expected ErrInvalidCredential, got %v", err)
		}
	})

	t.Run("unknown book id", func(t *testing.T) {
		if _, _, err := sessions.AuthenticateAdmin(context.Background(), "NOBODY", "s3cret"); !errors.Is(err, ErrInvalidCredential) {
			t.Fatalf("expected ErrInvalidCredential, got %v", err)
		}
	})
}
