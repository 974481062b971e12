package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"goldbook/internal/models"
	"goldbook/internal/password"
	"goldbook/internal/repository"
)

var (
	// ErrInvalidCredential represents sign-in failure. It intentionally does
	// not distinguish an unknown book id from anything else.
	ErrInvalidCredential = errors.New("session: invalid credential")
	// ErrNoSession indicates there is no cached session to restore.
	ErrNoSession = errors.New("session: no cached session")
)

// SessionDirectory is the directory surface the session manager depends on.
type SessionDirectory interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByBookID(ctx context.Context, bookID string) (*models.Account, error)
	GetPasswordHash(ctx context.Context, id string) (string, error)
}

// SessionStore persists the single current session across process restarts.
type SessionStore interface {
	Save(ctx context.Context, account *models.Account) error
	Load(ctx context.Context) (*models.Account, error)
	Delete(ctx context.Context) error
}

// SessionService owns the locally cached signed-in account. At most one
// session is live per process; nothing else writes the cache.
type SessionService struct {
	directory SessionDirectory
	store     SessionStore
	tokens    *TokenService
	hasher    password.Hasher
	logger    *zap.Logger

	mu      sync.RWMutex
	current *models.Account
}

// NewSessionService builds the session manager.
func NewSessionService(directory SessionDirectory, store SessionStore, tokens *TokenService, hasher password.Hasher, logger *zap.Logger) *SessionService {
	return &SessionService{
		directory: directory,
		store:     store,
		tokens:    tokens,
		hasher:    hasher,
		logger:    logger,
	}
}

// Restore loads a previously persisted session into memory without contacting
// the directory. Returns ErrNoSession when nothing is persisted.
func (s *SessionService) Restore(ctx context.Context) (*models.Account, error) {
	account, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = account
	s.mu.Unlock()

	return account, nil
}

// Authenticate looks the account up by book id, replaces the cached session
// and persists it, and issues a session token. A failed lookup leaves any
// existing session untouched.
func (s *SessionService) Authenticate(ctx context.Context, bookID string) (*models.Account, string, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return nil, "", ErrInvalidCredential
	}

	account, err := s.directory.GetByBookID(ctx, bookID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, "", ErrInvalidCredential
		}
		return nil, "", err
	}

	token, err := s.tokens.GenerateToken(account.ID, account.IsAdmin)
	if err != nil {
		return nil, "", err
	}

	s.replace(ctx, account)
	return account, token, nil
}

// AuthenticateAdmin verifies an administrator's book id and password before
// issuing an admin token. Member sign-in stays lookup-only; this is the
// hardened path guarding the directory mutations.
func (s *SessionService) AuthenticateAdmin(ctx context.Context, bookID, pass string) (*models.Account, string, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" || pass == "" {
		return nil, "", ErrInvalidCredential
	}

	account, err := s.directory.GetByBookID(ctx, bookID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, "", ErrInvalidCredential
		}
		return nil, "", err
	}
	if !account.IsAdmin {
		return nil, "", ErrInvalidCredential
	}

	hash, err := s.directory.GetPasswordHash(ctx, account.ID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, "", ErrInvalidCredential
		}
		return nil, "", err
	}
	if hash == "" || s.hasher.Compare(hash, pass) != nil {
		return nil, "", ErrInvalidCredential
	}

	token, err := s.tokens.GenerateToken(account.ID, true)
	if err != nil {
		return nil, "", err
	}

	s.replace(ctx, account)
	return account, token, nil
}

// Refresh re-fetches the account and overwrites the cached session. On fetch
// failure the previous cache is retained unchanged: stale-but-available beats
// unavailable.
func (s *SessionService) Refresh(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.directory.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	s.replace(ctx, account)
	return account, nil
}

// Current returns the cached session, if any.
func (s *SessionService) Current() (*models.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	copied := *s.current
	return &copied, true
}

// SignOut clears the persisted and in-memory session unconditionally.
// A failing store delete is logged, never surfaced as blocking.
func (s *SessionService) SignOut(ctx context.Context) {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if err := s.store.Delete(ctx); err != nil {
		s.logger.Warn("failed to clear persisted session", zap.Error(err))
	}
}

func (s *SessionService) replace(ctx context.Context, account *models.Account) {
	s.mu.Lock()
	s.current = account
	s.mu.Unlock()

	if err := s.store.Save(ctx, account); err != nil {
		s.logger.Warn("failed to persist session", zap.Error(err))
	}
}
