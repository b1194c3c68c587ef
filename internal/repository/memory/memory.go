// Package memory provides mutex-guarded in-memory repositories. They back
// STORAGE_DRIVER=memory for local runs and the service and handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/marufkhan20/pizza-auth-service/internal/domain"
	"github.com/marufkhan20/pizza-auth-service/internal/repository"
)

// Store holds every table so that cascades behave like the Postgres schema.
type Store struct {
	mu            sync.Mutex
	now           func() time.Time
	users         map[int64]domain.User
	tenants       map[int64]domain.Tenant
	refreshTokens map[int64]domain.RefreshToken
	nextUserID    int64
	nextTenantID  int64
	nextTokenID   int64
}

func NewStore() *Store {
	return &Store{
		now:           time.Now,
		users:         make(map[int64]domain.User),
		tenants:       make(map[int64]domain.Tenant),
		refreshTokens: make(map[int64]domain.RefreshToken),
	}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepository{s}
}

func (s *Store) Tenants() repository.TenantRepository {
	return &tenantRepository{s}
}

func (s *Store) RefreshTokens() repository.RefreshTokenRepository {
	return &refreshTokenRepository{s}
}

// RefreshTokensForUser returns the records owned by userID ordered by id.
func (s *Store) RefreshTokensForUser(userID int64) []domain.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.RefreshToken
	for _, t := range s.refreshTokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type userRepository struct{ s *Store }

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("failed to create user: %w", repository.ErrDuplicate)
		}
	}
	if user.TenantID != nil {
		if _, ok := s.tenants[*user.TenantID]; !ok {
			return fmt.Errorf("failed to create user: tenant %d does not exist", *user.TenantID)
		}
	}

	s.nextUserID++
	now := s.now()
	user.ID = s.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u.Public(), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := r.GetByEmailWithPassword(ctx, email)
	if err != nil {
		return nil, err
	}
	return u.Public(), nil
}

func (r *userRepository) GetByEmailWithPassword(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) List(_ context.Context) ([]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	users := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u.Public())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.Role = user.Role
	stored.UpdatedAt = s.now()
	s.users[user.ID] = stored

	user.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *userRepository) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	for tid, t := range s.refreshTokens {
		if t.UserID == id {
			delete(s.refreshTokens, tid)
		}
	}
	return nil
}

type tenantRepository struct{ s *Store }

func (r *tenantRepository) Create(_ context.Context, tenant *domain.Tenant) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTenantID++
	now := s.now()
	tenant.ID = s.nextTenantID
	tenant.CreatedAt = now
	tenant.UpdatedAt = now
	s.tenants[tenant.ID] = *tenant
	return nil
}

func (r *tenantRepository) GetByID(_ context.Context, id int64) (*domain.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tenants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r *tenantRepository) List(_ context.Context) ([]*domain.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tenants := make([]*domain.Tenant, 0, len(r.s.tenants))
	for _, t := range r.s.tenants {
		cp := t
		tenants = append(tenants, &cp)
	}
	sort.Slice(tenants, func(i, j int) bool { return tenants[i].ID < tenants[j].ID })
	return tenants, nil
}

func (r *tenantRepository) Update(_ context.Context, tenant *domain.Tenant) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.tenants[tenant.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name = tenant.Name
	stored.Address = tenant.Address
	stored.UpdatedAt = s.now()
	s.tenants[tenant.ID] = stored

	tenant.CreatedAt = stored.CreatedAt
	tenant.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *tenantRepository) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.tenants, id)
	for uid, u := range s.users {
		if u.TenantID != nil && *u.TenantID == id {
			u.TenantID = nil
			s.users[uid] = u
		}
	}
	return nil
}

type refreshTokenRepository struct{ s *Store }

func (r *refreshTokenRepository) Create(_ context.Context, userID int64, expiresAt time.Time) (*domain.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.insertRefreshToken(userID, expiresAt)
}

// insertRefreshToken requires s.mu to be held.
func (s *Store) insertRefreshToken(userID int64, expiresAt time.Time) (*domain.RefreshToken, error) {
	if _, ok := s.users[userID]; !ok {
		return nil, fmt.Errorf("failed to create refresh token: user %d does not exist", userID)
	}

	s.nextTokenID++
	t := domain.RefreshToken{
		ID:        s.nextTokenID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: s.now(),
	}
	s.refreshTokens[t.ID] = t
	return &t, nil
}

func (r *refreshTokenRepository) GetByID(_ context.Context, id int64) (*domain.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.refreshTokens[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r *refreshTokenRepository) Delete(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.refreshTokens[id]; !ok {
		return false, nil
	}
	delete(r.s.refreshTokens, id)
	return true, nil
}

func (r *refreshTokenRepository) Rotate(_ context.Context, oldID, userID int64, expiresAt time.Time) (*domain.RefreshToken, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.refreshTokens[oldID]
	if !ok || old.UserID != userID {
		return nil, repository.ErrNotFound
	}

	t, err := s.insertRefreshToken(userID, expiresAt)
	if err != nil {
		return nil, err
	}
	delete(s.refreshTokens, oldID)
	return t, nil
}

func (r *refreshTokenRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, t := range r.s.refreshTokens {
		if !t.ExpiresAt.After(before) {
			delete(r.s.refreshTokens, id)
			n++
		}
	}
	return n, nil
}
