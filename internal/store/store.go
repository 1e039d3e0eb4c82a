package store

import (
	"context"
	"errors"

	"github.com/noah-isme/roster-api/internal/models"
)

// ErrNotFound reports a write aimed at a document that does not exist
// remotely (or is owned by another teacher).
var ErrNotFound = errors.New("store: document not found")

// Snapshot is one emission of the complete result set for a teacher's
// subscription. PendingWrites marks snapshots that include local writes
// not yet acknowledged by the store.
type Snapshot struct {
	Students      []models.Student
	PendingWrites bool
}

// Subscription delivers snapshots until cancelled. The channel is closed
// on cancellation or failure; Err distinguishes the two.
type Subscription interface {
	Snapshots() <-chan Snapshot
	Err() error
	Cancel()
}

// Store is the document-store collaborator: per-teacher snapshot
// subscriptions plus per-document writes. Writes complete independently
// of any subscription; identifiers assigned on create are delivered only
// through the next snapshot.
type Store interface {
	Subscribe(ctx context.Context, teacherID string) (Subscription, error)
	Create(ctx context.Context, teacherID string, fields models.StudentFields) error
	Update(ctx context.Context, teacherID, id string, patch models.StudentPatch) error
	Delete(ctx context.Context, teacherID, id string) error
	// TouchReminder stamps last_reminded with the store's clock.
	TouchReminder(ctx context.Context, teacherID, id string) error
}
