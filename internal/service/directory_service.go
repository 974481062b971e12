package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"goldbook/internal/models"
	"goldbook/internal/password"
	"goldbook/internal/repository"
)

// ErrValidation rejects malformed directory input before any write.
var ErrValidation = errors.New("directory: validation failed")

// AccountRepository defines the storage contract used by the directory service.
type AccountRepository interface {
	Create(ctx context.Context, acc *models.Account, passwordHash string) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByBookID(ctx context.Context, bookID string) (*models.Account, error)
	List(ctx context.Context, includeAdmins bool) ([]models.Account, error)
	Delete(ctx context.Context, id string) error
	SetMonthsPaid(ctx context.Context, id string, months int) error
}

// TransactionLister reads an account's purchase history.
type TransactionLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.Transaction, error)
}

// DirectoryService implements administrator operations on member accounts.
type DirectoryService struct {
	accounts     AccountRepository
	transactions TransactionLister
	hasher       password.Hasher
	logger       *zap.Logger
}

// NewDirectoryService builds the directory service.
func NewDirectoryService(accounts AccountRepository, transactions TransactionLister, hasher password.Hasher, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{
		accounts:     accounts,
		transactions: transactions,
		hasher:       hasher,
		logger:       logger,
	}
}

// CreateAccountInput carries fields for a new member account.
type CreateAccountInput struct {
	Name     string `json:"name"`
	BookID   string `json:"bookid"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"isAdmin"`
	Password string `json:"password,omitempty"`
}

// CreateAccount validates input and inserts the account with zeroed aggregates.
func (s *DirectoryService) CreateAccount(ctx context.Context, input CreateAccountInput) (*models.Account, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.BookID = strings.TrimSpace(input.BookID)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Email = strings.TrimSpace(input.Email)

	if input.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if input.BookID == "" {
		return nil, fmt.Errorf("%w: bookid required", ErrValidation)
	}
	if input.Phone == "" {
		return nil, fmt.Errorf("%w: phone required", ErrValidation)
	}
	if input.IsAdmin && input.Password == "" {
		return nil, fmt.Errorf("%w: admin accounts require a password", ErrValidation)
	}

	if _, err := s.accounts.GetByBookID(ctx, input.BookID); err == nil {
		return nil, fmt.Errorf("%w: bookid already in use", ErrValidation)
	} else if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, err
	}

	var hash string
	if input.Password != "" {
		var err error
		if hash, err = s.hasher.Hash(input.Password); err != nil {
			return nil, err
		}
	}

	account := &models.Account{
		ID:      uuid.NewString(),
		BookID:  input.BookID,
		Name:    input.Name,
		Phone:   input.Phone,
		Email:   input.Email,
		IsAdmin: input.IsAdmin,
	}

	if err := s.accounts.Create(ctx, account, hash); err != nil {
		if errors.Is(err, repository.ErrDuplicateBookID) {
			return nil, fmt.Errorf("%w: bookid already in use", ErrValidation)
		}
		return nil, err
	}

	s.logger.Info("account created",
		zap.String("account_id", account.ID),
		zap.String("bookid", account.BookID),
		zap.Bool("is_admin", account.IsAdmin),
	)
	return account, nil
}

// ListAccounts returns accounts in stable order, optionally excluding admins.
func (s *DirectoryService) ListAccounts(ctx context.Context, includeAdmins bool) ([]models.Account, error) {
	return s.accounts.List(ctx, includeAdmins)
}

// GetAccount returns one account by id.
func (s *DirectoryService) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// DeleteAccount hard-deletes the account. Its transaction history is retained
// for audit; nothing cascades.
func (s *DirectoryService) DeleteAccount(ctx context.Context, id string) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("account deleted", zap.String("account_id", id))
	return nil
}

// AccountTransactions returns the purchase history, most recent first. Works
// for deleted accounts too, since history outlives the account row.
func (s *DirectoryService) AccountTransactions(ctx context.Context, accountID string) ([]models.Transaction, error) {
	return s.transactions.ListByUser(ctx, accountID)
}

// SetMonthsPaid sets the administrator-maintained months counter.
func (s *DirectoryService) SetMonthsPaid(ctx context.Context, accountID string, months int) error {
	if months < 0 || months > 11 {
		return fmt.Errorf("%w: months paid must be between 0 and 11", ErrValidation)
	}
	return s.accounts.SetMonthsPaid(ctx, accountID, months)
}
