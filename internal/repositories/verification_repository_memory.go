package repositories

import (
	"sync"
	"time"

	"malinoise/internal/models"
)

type verificationKey struct {
	subject string
	kind    models.VerificationKind
}

// memoryVerificationRepository — in-memory вариант: мапа под мьютексом.
// Конструируется один раз на процесс; исходный вариант с глобальной мапой,
// сбрасывавшейся на каждый cold start, здесь намеренно не воспроизводится.
type memoryVerificationRepository struct {
	mu     sync.Mutex
	byKey  map[verificationKey]*models.PendingVerification
	byID   map[int64]verificationKey
	nextID int64
}

func NewMemoryVerificationRepository() VerificationRepository {
	return &memoryVerificationRepository{
		byKey:  make(map[verificationKey]*models.PendingVerification),
		byID:   make(map[int64]verificationKey),
		nextID: 1,
	}
}

func (r *memoryVerificationRepository) Get(subject string, kind models.VerificationKind) (*models.PendingVerification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.byKey[verificationKey{subject, kind}]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (r *memoryVerificationRepository) Replace(rec *models.PendingVerification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := verificationKey{rec.Subject, rec.Kind}
	if old, ok := r.byKey[key]; ok {
		delete(r.byID, old.ID)
	}
	rec.ID = r.nextID
	r.nextID++
	cp := *rec
	r.byKey[key] = &cp
	r.byID[rec.ID] = key
	return nil
}

func (r *memoryVerificationRepository) Delete(id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	delete(r.byID, id)
	delete(r.byKey, key)
	return true, nil
}

func (r *memoryVerificationRepository) IncrementAttempts(id int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.byID[id]
	if !ok {
		return 0, nil
	}
	v := r.byKey[key]
	v.Attempts++
	return v.Attempts, nil
}

func (r *memoryVerificationRepository) ExpireNow(id int64, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.byID[id]
	if !ok {
		return nil
	}
	r.byKey[key].ExpiresAt = now
	return nil
}

func (r *memoryVerificationRepository) DeleteExpired(now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key, v := range r.byKey {
		if now.After(v.ExpiresAt) {
			delete(r.byID, v.ID)
			delete(r.byKey, key)
			n++
		}
	}
	return n, nil
}

func (r *memoryVerificationRepository) CountActive(now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := 0
	for _, v := range r.byKey {
		if !now.After(v.ExpiresAt) {
			c++
		}
	}
	return c, nil
}
