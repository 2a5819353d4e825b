package account

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewMemoryRepository builds an in-memory account store for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{accounts: make(map[string]Account)}
}

func (r *memoryRepository) Create(_ context.Context, acct Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Email == acct.Email || existing.Username == acct.Username {
			return ErrConflict
		}
		if acct.CPF != "" && existing.CPF == acct.CPF {
			return ErrConflict
		}
	}
	r.accounts[acct.ID] = acct
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acct, nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (Account, error) {
	return r.find(func(a Account) bool { return a.Email == email })
}

func (r *memoryRepository) FindByUsername(_ context.Context, username string) (Account, error) {
	return r.find(func(a Account) bool { return a.Username == username })
}

func (r *memoryRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, err := r.find(func(a Account) bool { return a.Email == email })
	return err == nil, nil
}

func (r *memoryRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, err := r.find(func(a Account) bool { return a.Username == username })
	return err == nil, nil
}

func (r *memoryRepository) ExistsByCPF(_ context.Context, cpf string) (bool, error) {
	if cpf == "" {
		return false, nil
	}
	_, err := r.find(func(a Account) bool { return a.CPF == cpf })
	return err == nil, nil
}

func (r *memoryRepository) UpdatePassword(_ context.Context, id string, passwordHash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	acct.PasswordHash = passwordHash
	r.accounts[id] = acct
	return nil
}

func (r *memoryRepository) find(match func(Account) bool) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, acct := range r.accounts {
		if match(acct) {
			return acct, nil
		}
	}
	return Account{}, ErrNotFound
}
