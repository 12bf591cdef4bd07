package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/authsvc/internal/models"
)

// NewMemory builds an in-memory Store for testing.
func NewMemory() Store {
	return Store{
		Users:   &memoryUsers{users: make(map[uuid.UUID]models.User)},
		Codes:   &memoryCodes{},
		Refresh: &memoryRefreshTokens{tokens: make(map[string]models.RefreshToken)},
		Reset:   &memoryResetTokens{tokens: make(map[string]models.PasswordResetToken)},
	}
}

type memoryUsers struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.User
}

func (r *memoryUsers) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if user.Phone != nil && existing.Phone != nil && *existing.Phone == *user.Phone {
			return ErrDuplicate
		}
		if user.Email != nil && existing.Email != nil && *existing.Email == *user.Email {
			return ErrDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func (r *memoryUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *memoryUsers) FindByPhone(_ context.Context, phone string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Phone != nil && *user.Phone == phone {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Email != nil && *user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryUsers) FindByEmailToken(_ context.Context, token string, now time.Time) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.EmailToken != nil && *user.EmailToken == token &&
			user.EmailTokenExpires != nil && user.EmailTokenExpires.After(now) {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryUsers) Save(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return ErrNotFound
	}
	r.users[user.ID] = *user
	return nil
}

type memoryCodes struct {
	mu     sync.Mutex
	nextID uint
	codes  []models.SMSCode
}

func (r *memoryCodes) Create(_ context.Context, code *models.SMSCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	code.ID = r.nextID
	r.codes = append(r.codes, *code)
	return nil
}

func (r *memoryCodes) LatestByPhone(_ context.Context, phone string) (*models.SMSCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.SMSCode
	for i := range r.codes {
		code := r.codes[i]
		if code.Phone != phone {
			continue
		}
		if latest == nil || code.SentAt.After(latest.SentAt) ||
			(code.SentAt.Equal(latest.SentAt) && code.ID > latest.ID) {
			c := code
			latest = &c
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (r *memoryCodes) Save(_ context.Context, code *models.SMSCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.codes {
		if r.codes[i].ID == code.ID {
			r.codes[i] = *code
			return nil
		}
	}
	return ErrNotFound
}

type memoryRefreshTokens struct {
	mu     sync.Mutex
	tokens map[string]models.RefreshToken
}

func (r *memoryRefreshTokens) Create(_ context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tokens[token.Token]; exists {
		return ErrDuplicate
	}
	token.CreatedAt = time.Now()
	r.tokens[token.Token] = *token
	return nil
}

func (r *memoryRefreshTokens) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (r *memoryRefreshTokens) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

func (r *memoryRefreshTokens) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for value, token := range r.tokens {
		if token.UserID == userID {
			delete(r.tokens, value)
		}
	}
	return nil
}

func (r *memoryRefreshTokens) DeleteExpiredByUser(_ context.Context, userID uuid.UUID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for value, token := range r.tokens {
		if token.UserID == userID && !token.ExpiresAt.After(now) {
			delete(r.tokens, value)
		}
	}
	return nil
}

type memoryResetTokens struct {
	mu     sync.Mutex
	tokens map[string]models.PasswordResetToken
}

func (r *memoryResetTokens) Replace(_ context.Context, token *models.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for value, existing := range r.tokens {
		if existing.UserID == token.UserID {
			delete(r.tokens, value)
		}
	}
	r.tokens[token.Token] = *token
	return nil
}

func (r *memoryResetTokens) FindValid(_ context.Context, token string, now time.Time) (*models.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.tokens[token]
	if !ok || !row.ExpiresAt.After(now) {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (r *memoryResetTokens) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}
