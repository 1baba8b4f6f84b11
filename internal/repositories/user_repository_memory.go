package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"malinoise/internal/models"
)

// memoryUserRepository — in-memory вариант хранилища аккаунтов. Живёт всё
// время процесса (конструируется один раз в app), используется в тестах и при
// driver=memory.
type memoryUserRepository struct {
	mu     sync.RWMutex
	byID   map[int]*models.User
	nextID int
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:   make(map[int]*models.User),
		nextID: 1,
	}
}

func (r *memoryUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == user.Email {
			return fmt.Errorf("user create: email %q already exists", user.Email)
		}
	}
	user.ID = r.nextID
	r.nextID++
	cp := *user
	r.byID[user.ID] = &cp
	return nil
}

func (r *memoryUserRepository) GetByID(id int) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memoryUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepository) UpdatePassword(userID int, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return fmt.Errorf("user update password: id %d not found", userID)
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *memoryUserRepository) UpdateLastLogin(userID int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return fmt.Errorf("user update last_login: id %d not found", userID)
	}
	t := at
	u.LastLogin = &t
	return nil
}

func (r *memoryUserRepository) List(limit, offset int) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*models.User, 0, len(r.byID))
	for _, u := range r.byID {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *memoryUserRepository) GetCount() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

func (r *memoryUserRepository) GetVerifiedCount() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := 0
	for _, u := range r.byID {
		if u.IsVerified {
			c++
		}
	}
	return c, nil
}
