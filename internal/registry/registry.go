// Package registry maintains the process-wide record of active
// downloads, enforcing at most one task per user, and the
// cancellation-request flags users flip to abort their own task.
package registry

import (
	"sync"

	"golang.org/x/sync/semaphore"

	"telefetch/internal/utils/logging"
)

// DownloadRegistry is created once at process start and torn down at
// shutdown. All state is in-memory; a restart clears every admission
// and cancellation flag.
type DownloadRegistry struct {
	mu      sync.Mutex
	sems    map[int64]*semaphore.Weighted
	active  map[int64]string // user id -> task description
	cancels map[int64]bool
}

// New returns an empty registry.
func New() *DownloadRegistry {
	return &DownloadRegistry{
		sems:    make(map[int64]*semaphore.Weighted),
		active:  make(map[int64]string),
		cancels: make(map[int64]bool),
	}
}

// TryAcquire admits a task for the user, recording desc as the
// in-progress description. Returns false without blocking when the user
// already holds an admission.
func (r *DownloadRegistry) TryAcquire(userID int64, desc string) bool {
	r.mu.Lock()
	sem, ok := r.sems[userID]
	if !ok {
		sem = semaphore.NewWeighted(1)
		r.sems[userID] = sem
	}
	r.mu.Unlock()

	if !sem.TryAcquire(1) {
		return false
	}

	r.mu.Lock()
	r.active[userID] = desc
	r.mu.Unlock()

	logging.D(1, "Admitted download for user %d: %s", userID, desc)
	return true
}

// Release frees the user's admission and clears any pending cancel
// request. Safe to call from deferred cleanup even if acquisition never
// happened.
func (r *DownloadRegistry) Release(userID int64) {
	r.mu.Lock()
	sem, held := r.sems[userID]
	_, admitted := r.active[userID]
	delete(r.active, userID)
	delete(r.cancels, userID)
	r.mu.Unlock()

	if held && admitted {
		sem.Release(1)
	}
}

// ActiveDescription returns the in-progress task description for the
// user, if any.
func (r *DownloadRegistry) ActiveDescription(userID int64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	desc, ok := r.active[userID]
	return desc, ok
}

// RequestCancel flips the user's cancellation flag. Returns false when
// the user has no active task to cancel.
func (r *DownloadRegistry) RequestCancel(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[userID]; !ok {
		return false
	}
	r.cancels[userID] = true
	return true
}

// CancelRequested reports whether the user asked to abort.
func (r *DownloadRegistry) CancelRequested(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.cancels[userID]
}

// ClearCancel resets the user's cancellation flag.
func (r *DownloadRegistry) ClearCancel(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.cancels, userID)
}
