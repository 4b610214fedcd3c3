package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/patrickmn/go-cache"
	"github.com/username/tradebook/backend/src/database"
	"github.com/username/tradebook/backend/src/logger"
	"github.com/username/tradebook/backend/src/models"
)

type accountServiceImpl struct {
	store *database.Store
	cache *cache.Cache
}

func NewAccountService(store *database.Store, c *cache.Cache) AccountService {
	return &accountServiceImpl{store: store, cache: c}
}

func (s *accountServiceImpl) CreateAccount(ctx context.Context, name string, provider models.Provider) (*models.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("account name is required")
	}
	if !provider.Valid() {
		return nil, validationError("unknown provider %q", provider)
	}
	var account *models.Account
	err := s.store.WithTx(ctx, func(q *database.Queries) error {
		if _, err := q.GetAccountByName(ctx, name); err == nil {
			return fmt.Errorf("%w: %q", ErrAccountExists, name)
		} else if !errors.Is(err, database.ErrNotFound) {
			return err
		}
		account = &models.Account{Name: name, Provider: provider, IsActive: true}
		return q.InsertAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Account created", "accountID", account.ID, "name", name, "provider", provider)
	return account, nil
}

// GetOrCreateAccount returns the account called name, creating it with
// provider when absent. An existing account keeps its own provider.
func (s *accountServiceImpl) GetOrCreateAccount(ctx context.Context, name string, provider models.Provider) (*models.Account, error) {
	account, err := s.store.GetAccountByName(ctx, strings.TrimSpace(name))
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	return s.CreateAccount(ctx, name, provider)
}

func (s *accountServiceImpl) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	a, err := s.store.GetAccount(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	return a, err
}

func (s *accountServiceImpl) ListAccounts(ctx context.Context, activeOnly bool) ([]models.Account, error) {
	accounts, err := s.store.ListAccounts(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

// UpdateAccount renames or (de)activates an account. Inactive accounts drop
// out of all-account position listings.
func (s *accountServiceImpl) UpdateAccount(ctx context.Context, id int64, in AccountUpdate) (*models.Account, error) {
	var account *models.Account
	err := s.store.WithTx(ctx, func(q *database.Queries) error {
		var err error
		if account, err = q.GetAccount(ctx, id); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return validationError("account name is required")
			}
			if other, err := q.GetAccountByName(ctx, name); err == nil && other.ID != id {
				return fmt.Errorf("%w: %q", ErrAccountExists, name)
			}
			account.Name = name
		}
		if in.IsActive != nil {
			account.IsActive = *in.IsActive
		}
		return q.UpdateAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	invalidatePositions(s.cache, &id)
	return account, nil
}
