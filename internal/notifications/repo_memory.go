package notifications

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]Notification
	seq   int
	order map[string]int
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[string]Notification), order: make(map[string]int)}
}

func (r *MemoryRepo) Create(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	n.SentVia = append([]string(nil), n.SentVia...)
	r.seq++
	r.order[n.ID] = r.seq
	r.items[n.ID] = n
	return nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Notification{}
	for _, n := range r.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.order[out[i].ID] > r.order[out[j].ID]
	})
	return out, nil
}

func (r *MemoryRepo) MarkRead(ctx context.Context, userID, notificationID string) (Notification, error) {
	if err := ctx.Err(); err != nil {
		return Notification{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[notificationID]
	if !ok || n.UserID != userID {
		return Notification{}, ErrNotFound
	}
	n.IsRead = true
	r.items[notificationID] = n
	return n, nil
}

var _ Repo = (*MemoryRepo)(nil)
