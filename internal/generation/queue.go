package generation

import (
	"sort"
	"sync"
	"time"

	"github.com/adcraft/creative-engine/internal/domain"
)

// Store owns the queue items for one service instance. Only the dispatch
// loop mutates items; every read hands out a snapshot copy, so callers can
// never observe or cause a partial transition.
type Store struct {
	mu    sync.RWMutex
	items map[string]*domain.QueueItem
	now   func() time.Time
}

// NewStore constructs an empty queue store.
func NewStore() *Store {
	return &Store{
		items: make(map[string]*domain.QueueItem),
		now:   time.Now,
	}
}

// Put inserts a new item.
func (s *Store) Put(item domain.QueueItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := item
	s.items[item.ID] = &copied
}

// Get returns a snapshot of the item.
func (s *Store) Get(id string) (domain.QueueItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return domain.QueueItem{}, false
	}
	return snapshot(item), true
}

// List returns snapshots of every item ordered by creation time.
func (s *Store) List() []domain.QueueItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QueueItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, snapshot(item))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// NextQueued returns up to limit queued items ordered by priority weight
// descending, then FIFO by creation time.
func (s *Store) NextQueued(limit int) []domain.QueueItem {
	if limit <= 0 {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var queued []domain.QueueItem
	for _, item := range s.items {
		if item.Status == domain.StatusQueued {
			queued = append(queued, snapshot(item))
		}
	}
	sort.Slice(queued, func(i, j int) bool {
		if wi, wj := queued[i].Priority.Weight(), queued[j].Priority.Weight(); wi != wj {
			return wi > wj
		}
		return queued[i].CreatedAt.Before(queued[j].CreatedAt)
	})
	if len(queued) > limit {
		queued = queued[:limit]
	}
	return queued
}

// CountProcessing reports how many items currently occupy a processing slot.
func (s *Store) CountProcessing() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, item := range s.items {
		if item.Status == domain.StatusProcessing {
			count++
		}
	}
	return count
}

// MarkProcessing moves a queued item into processing. Returns false when the
// item is gone or no longer queued (raced with a cancel).
func (s *Store) MarkProcessing(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.Status != domain.StatusQueued {
		return false
	}
	item.Status = domain.StatusProcessing
	item.Progress = 0
	item.UpdatedAt = s.now()
	return true
}

// BumpProgress raises the progress of a processing item. Progress is
// monotonic and stays below 100 until Complete.
func (s *Store) BumpProgress(id string, step int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.Status != domain.StatusProcessing {
		return
	}
	next := item.Progress + step
	if next > 95 {
		next = 95
	}
	if next > item.Progress {
		item.Progress = next
		item.UpdatedAt = s.now()
	}
}

// Complete records the result of a successful generation. A late result for
// an item that is no longer processing (cancelled meanwhile) is discarded.
func (s *Store) Complete(id string, asset *domain.GeneratedAsset) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.Status != domain.StatusProcessing {
		return false
	}
	item.Status = domain.StatusComplete
	item.Progress = 100
	item.Result = asset
	item.Error = ""
	item.UpdatedAt = s.now()
	return true
}

// FailOrRequeue records a failed attempt. While retries remain the item goes
// back to queued with an incremented retry count; otherwise it becomes
// terminally errored. Returns whether the item was requeued. Cancelled items
// are left untouched.
func (s *Store) FailOrRequeue(id string, message string) (requeued bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.Status != domain.StatusProcessing {
		return false
	}
	item.Error = message
	item.Result = nil
	item.UpdatedAt = s.now()
	if item.RetryCount < item.MaxRetries {
		item.RetryCount++
		item.Status = domain.StatusQueued
		item.Progress = 0
		return true
	}
	item.Status = domain.StatusError
	return false
}

// Cancel transitions a queued or processing item to cancelled.
func (s *Store) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	if item.Status.IsTerminal() {
		return domain.ErrItemTerminal
	}
	item.Status = domain.StatusCancelled
	item.UpdatedAt = s.now()
	return nil
}

// ManualRetry re-queues a terminally errored item with a fresh retry budget.
func (s *Store) ManualRetry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	if item.Status != domain.StatusError {
		return domain.ErrNotRetryable
	}
	item.Status = domain.StatusQueued
	item.RetryCount = 0
	item.Progress = 0
	item.Error = ""
	item.UpdatedAt = s.now()
	return nil
}

func snapshot(item *domain.QueueItem) domain.QueueItem {
	copied := *item
	if item.Result != nil {
		result := *item.Result
		copied.Result = &result
	}
	return copied
}
