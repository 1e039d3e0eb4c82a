package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/roster-api/internal/models"
	"github.com/noah-isme/roster-api/internal/roster"
	"github.com/noah-isme/roster-api/internal/store"
)

type stubSubscription struct {
	ch   chan store.Snapshot
	once sync.Once
}

func (s *stubSubscription) Snapshots() <-chan store.Snapshot { return s.ch }
func (s *stubSubscription) Err() error                       { return nil }
func (s *stubSubscription) Cancel()                          { s.once.Do(func() { close(s.ch) }) }

// stubStore serves a fixed roster on subscribe and records writes.
type stubStore struct {
	mu       sync.Mutex
	students []models.Student

	createErr   error
	reminderErr error

	created  []models.StudentFields
	updated  []models.StudentPatch
	deleted  []string
	reminded []string
}

func (f *stubStore) Subscribe(ctx context.Context, teacherID string) (store.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &stubSubscription{ch: make(chan store.Snapshot, 1)}
	sub.ch <- store.Snapshot{Students: append([]models.Student(nil), f.students...)}
	return sub, nil
}

func (f *stubStore) Create(ctx context.Context, teacherID string, fields models.StudentFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, fields)
	return nil
}

func (f *stubStore) Update(ctx context.Context, teacherID, id string, patch models.StudentPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, patch)
	return nil
}

func (f *stubStore) Delete(ctx context.Context, teacherID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *stubStore) TouchReminder(ctx context.Context, teacherID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reminderErr != nil {
		return f.reminderErr
	}
	f.reminded = append(f.reminded, id)
	return nil
}

// newWarmRegistry starts a registry whose "t1" engine has already
// consumed its first snapshot.
func newWarmRegistry(t *testing.T, students []models.Student) (*roster.Registry, *stubStore) {
	t.Helper()
	st := &stubStore{students: students}
	reg := roster.NewRegistry(st, zap.NewNop())
	t.Cleanup(reg.Close)

	eng, err := reg.Acquire(context.Background(), "t1")
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for !eng.Synced() {
		if time.Now().After(deadline) {
			t.Fatal("engine never synced")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return reg, st
}
