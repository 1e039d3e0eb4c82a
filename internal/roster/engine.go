package roster

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/roster-api/internal/models"
	"github.com/noah-isme/roster-api/internal/store"
	appErrors "github.com/noah-isme/roster-api/pkg/errors"
)

// Engine owns the canonical in-memory roster for one teacher. It holds
// at most one live subscription; every snapshot notification replaces
// the list wholesale, never patches it. Mutations write through to the
// document store and leave the list untouched on failure, since the
// list only ever changes through snapshots.
type Engine struct {
	store     store.Store
	teacherID string
	logger    *zap.Logger

	mu            sync.RWMutex
	students      []models.Student
	pendingWrites bool
	synced        bool
	syncErr       error
	sub           store.Subscription
	consumed      chan struct{}
}

// NewEngine constructs an engine for one teacher. Start must be called
// before the canonical list is populated.
func NewEngine(st store.Store, teacherID string, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: st, teacherID: teacherID, logger: logger}
}

// TeacherID returns the identity this engine is scoped to.
func (e *Engine) TeacherID() string {
	return e.teacherID
}

// Start opens the live subscription, cancelling any prior one first so
// at most one is active at any time.
func (e *Engine) Start(ctx context.Context) error {
	e.Stop()

	sub, err := e.store.Subscribe(ctx, e.teacherID)
	if err != nil {
		e.mu.Lock()
		e.syncErr = err
		e.mu.Unlock()
		return appErrors.Wrap(err, appErrors.ErrSyncFailed.Code, appErrors.ErrSyncFailed.Status, "failed to open roster subscription")
	}

	consumed := make(chan struct{})
	e.mu.Lock()
	e.sub = sub
	e.syncErr = nil
	e.consumed = consumed
	e.mu.Unlock()

	go e.consume(sub, consumed)
	return nil
}

// Stop cancels the live subscription, freezing the canonical list at its
// last value. Safe to call when no subscription is open.
func (e *Engine) Stop() {
	e.mu.Lock()
	sub := e.sub
	consumed := e.consumed
	e.sub = nil
	e.consumed = nil
	e.mu.Unlock()

	if sub != nil {
		sub.Cancel()
		<-consumed
	}
}

func (e *Engine) consume(sub store.Subscription, done chan struct{}) {
	defer close(done)

	for snap := range sub.Snapshots() {
		e.mu.Lock()
		e.students = snap.Students
		e.pendingWrites = snap.PendingWrites
		e.synced = true
		e.mu.Unlock()
	}

	if err := sub.Err(); err != nil {
		e.mu.Lock()
		e.syncErr = err
		e.mu.Unlock()
		e.logger.Error("roster sync lost, canonical list frozen",
			zap.String("teacher_id", e.teacherID),
			zap.Error(err))
	}
}

// Snapshot returns a copy of the canonical list in server-determined
// order. Consumers must treat prior copies as stale after any change,
// never merge them.
func (e *Engine) Snapshot() []models.Student {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]models.Student(nil), e.students...)
}

// Synced reports whether at least one snapshot has been applied.
func (e *Engine) Synced() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.synced
}

// SyncError returns the failure that broke the subscription, or nil.
func (e *Engine) SyncError() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.syncErr
}

// Add writes a new record through to the store, stamping ownership. The
// assigned identifier arrives via the next snapshot, not synchronously.
func (e *Engine) Add(ctx context.Context, fields models.StudentFields) error {
	if err := e.store.Create(ctx, e.teacherID, fields); err != nil {
		return appErrors.Wrap(err, appErrors.ErrWriteFailed.Code, appErrors.ErrWriteFailed.Status, "failed to save student")
	}
	return nil
}

// Update merges a partial patch into an existing remote record.
func (e *Engine) Update(ctx context.Context, id string, patch models.StudentPatch) error {
	if err := e.store.Update(ctx, e.teacherID, id, patch); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrWriteFailed.Code, appErrors.ErrWriteFailed.Status, "failed to update student")
	}
	return nil
}

// Delete removes a remote record. Confirmation gating is the caller's
// responsibility; by the time this runs the human has already agreed.
func (e *Engine) Delete(ctx context.Context, id string) error {
	if err := e.store.Delete(ctx, e.teacherID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrWriteFailed.Code, appErrors.ErrWriteFailed.Status, "failed to delete student")
	}
	return nil
}

// RemindSent stamps last_reminded after a reminder was dispatched. The
// reminder itself already succeeded client-side, so a failed stamp is
// logged and swallowed rather than surfaced to the user.
func (e *Engine) RemindSent(ctx context.Context, id string) {
	if err := e.store.TouchReminder(ctx, e.teacherID, id); err != nil {
		e.logger.Warn("failed to log reminder",
			zap.String("teacher_id", e.teacherID),
			zap.String("student_id", id),
			zap.Error(err))
	}
}
