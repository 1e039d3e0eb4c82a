package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/roster-api/internal/models"
)

// subscription is one live snapshot stream. All emission happens on the
// run goroutine; the kick channel requests an optimistic re-emit using
// the last authoritative row set plus the pending overlay.
type subscription struct {
	store     *PostgresStore
	teacherID string
	ctx       context.Context
	cancel    context.CancelFunc
	ch        chan Snapshot
	kick      chan struct{}

	// owned by the run goroutine
	authoritative []models.Student

	mu  sync.Mutex
	err error
}

// Snapshots returns the stream; closed on cancel or failure.
func (s *subscription) Snapshots() <-chan Snapshot {
	return s.ch
}

// Err reports the failure that closed the stream, if any.
func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel tears the subscription down.
func (s *subscription) Cancel() {
	s.cancel()
}

func (s *subscription) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *subscription) run(pubsub *redis.PubSub) {
	defer close(s.ch)
	defer s.store.unregister(s)
	defer func() { _ = pubsub.Close() }()
	defer s.cancel()

	if err := s.resync(); err != nil {
		s.fail(err)
		return
	}

	msgs := pubsub.Channel()
	for {
		select {
		case <-s.ctx.Done():
			return
		case _, ok := <-msgs:
			if !ok {
				s.fail(fmt.Errorf("change bus closed"))
				return
			}
			if err := s.resync(); err != nil {
				s.fail(err)
				return
			}
		case <-s.kick:
			s.emit(s.authoritative)
		}
	}
}

// resync re-queries the authoritative roster and emits it. Pending ops
// that were durable before the query started are reconciled out of the
// overlay, since the row set now reflects them.
func (s *subscription) resync() error {
	cutoff := s.store.committedCutoff(s.teacherID)

	ctx, cancel := context.WithTimeout(s.ctx, s.store.cfg.ResyncTimeout)
	defer cancel()

	rows := []models.Student{}
	if err := s.store.db.SelectContext(ctx, &rows, selectRosterQuery, s.teacherID); err != nil {
		return fmt.Errorf("roster query: %w", err)
	}

	s.store.clearPending(s.teacherID, cutoff)
	s.authoritative = rows
	s.emit(rows)
	return nil
}

func (s *subscription) emit(rows []models.Student) {
	merged, dirty := s.store.overlay(s.teacherID, rows)
	snap := Snapshot{Students: merged, PendingWrites: dirty}

	select {
	case s.ch <- snap:
		return
	default:
	}
	// Buffer full: a slow consumer only needs the latest state, so shed
	// the oldest queued snapshot.
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- snap:
	default:
	}
}

func (s *subscription) fail(err error) {
	if s.ctx.Err() != nil {
		// cancelled, not failed
		return
	}
	s.setErr(err)
	s.store.logger.Error("roster subscription failed",
		zap.String("teacher_id", s.teacherID),
		zap.Error(err))
}
