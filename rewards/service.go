/*
service.go - Multi-user account manager

PURPOSE:
  Service hands out one Account per user, loading and replaying the
  user's entry log from the store on first touch and caching the live
  account afterwards. This replaces the source app's process-wide
  singleton store: tests and callers construct isolated Service (or
  bare Account) instances and inject whatever Store they want.
*/
package rewards

import (
	"context"
	"sync"

	"github.com/fleur/rewards-engine/ledger"
)

// Service manages accounts for many users over a shared store.
type Service struct {
	mu       sync.Mutex
	store    ledger.Store
	cfg      Config
	accounts map[ledger.UserID]*Account
}

// NewService creates a service over a store. A nil store keeps all
// accounts in memory only.
func NewService(store ledger.Store, cfg Config) *Service {
	return &Service{
		store:    store,
		cfg:      cfg.withDefaults(),
		accounts: make(map[ledger.UserID]*Account),
	}
}

// Account returns the live account for a user, opening it from the
// store on first access.
func (s *Service) Account(ctx context.Context, userID ledger.UserID) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.accounts[userID]; ok {
		return a, nil
	}

	var a *Account
	if s.store == nil {
		a = NewAccount(userID, s.cfg)
	} else {
		var err error
		a, err = OpenAccount(ctx, userID, s.store, s.cfg)
		if err != nil {
			return nil, err
		}
	}
	s.accounts[userID] = a
	return a, nil
}

// Actions returns the facade for a user.
func (s *Service) Actions(ctx context.Context, userID ledger.UserID) (*Actions, error) {
	a, err := s.Account(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewActions(a), nil
}

// Rules returns the constants table the service runs on.
func (s *Service) Rules() Rules { return s.cfg.Rules }
