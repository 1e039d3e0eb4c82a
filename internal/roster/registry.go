package roster

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/roster-api/internal/store"
)

// Registry scopes engines to authenticated sessions: one engine (and
// thus one live subscription) per teacher per process, created on first
// use and torn down on sign-out.
type Registry struct {
	store  store.Store
	logger *zap.Logger

	mu      sync.Mutex
	engines map[string]*Engine
}

// NewRegistry constructs an empty registry.
func NewRegistry(st store.Store, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{store: st, logger: logger, engines: make(map[string]*Engine)}
}

// Acquire returns the teacher's engine, starting one if none is live.
// The engine keeps syncing after the triggering request ends, so the
// subscription is bound to the background context, not the request's.
func (r *Registry) Acquire(ctx context.Context, teacherID string) (*Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if eng, ok := r.engines[teacherID]; ok {
		return eng, nil
	}

	eng := NewEngine(r.store, teacherID, r.logger)
	if err := eng.Start(context.Background()); err != nil {
		return nil, err
	}
	r.engines[teacherID] = eng
	r.logger.Info("roster session opened", zap.String("teacher_id", teacherID))
	return eng, nil
}

// Release tears down a teacher's engine on sign-out. Returns false when
// no session was live.
func (r *Registry) Release(teacherID string) bool {
	r.mu.Lock()
	eng, ok := r.engines[teacherID]
	delete(r.engines, teacherID)
	r.mu.Unlock()

	if !ok {
		return false
	}
	eng.Stop()
	r.logger.Info("roster session closed", zap.String("teacher_id", teacherID))
	return true
}

// Close stops every live engine. Used on shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	engines := make([]*Engine, 0, len(r.engines))
	for _, eng := range r.engines {
		engines = append(engines, eng)
	}
	r.engines = make(map[string]*Engine)
	r.mu.Unlock()

	for _, eng := range engines {
		eng.Stop()
	}
}

// Sessions reports the number of live engines.
func (r *Registry) Sessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.engines)
}
