package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/roster-api/internal/models"
	"github.com/noah-isme/roster-api/internal/roster"
	"github.com/noah-isme/roster-api/internal/view"
	appErrors "github.com/noah-isme/roster-api/pkg/errors"
)

// engineProvider hands out session-scoped sync engines.
type engineProvider interface {
	Acquire(ctx context.Context, teacherID string) (*roster.Engine, error)
	Release(teacherID string) bool
}

// CreateStudentRequest holds payload for adding a student.
type CreateStudentRequest struct {
	Name        string  `json:"name" validate:"required"`
	RollNumber  string  `json:"roll_number" validate:"required"`
	Course      string  `json:"course" validate:"required"`
	Fee         float64 `json:"fee" validate:"gte=0"`
	JoiningDate string  `json:"joining_date" validate:"required,datetime=2006-01-02"`
	Phone       string  `json:"phone" validate:"required"`
	Address     string  `json:"address"`
	Note        string  `json:"note"`
	FeePaid     bool    `json:"fee_paid"`
}

// UpdateStudentRequest holds a partial update; nil fields stay untouched.
type UpdateStudentRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	RollNumber  *string  `json:"roll_number,omitempty" validate:"omitempty,min=1"`
	Course      *string  `json:"course,omitempty"`
	Fee         *float64 `json:"fee,omitempty" validate:"omitempty,gte=0"`
	JoiningDate *string  `json:"joining_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Phone       *string  `json:"phone,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Note        *string  `json:"note,omitempty"`
	FeePaid     *bool    `json:"fee_paid,omitempty"`
}

// RosterView is a projected roster plus the context a client needs to
// pick the right empty-state: an empty Students with RosterSize > 0
// means "no match", with RosterSize == 0 it means "no students yet".
type RosterView struct {
	Students     []models.Student `json:"students"`
	RosterSize   int              `json:"roster_size"`
	SyncDegraded bool             `json:"sync_degraded,omitempty"`
}

// RosterService exposes roster use-cases over the sync engine.
type RosterService struct {
	engines   engineProvider
	projector *view.Projector
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterService constructs the roster service.
func NewRosterService(engines engineProvider, projector *view.Projector, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{engines: engines, projector: projector, validator: validate, logger: logger}
}

// List projects the canonical roster for display. A broken subscription
// serves the frozen last-known-good list and flags the degradation.
func (s *RosterService) List(ctx context.Context, teacherID string, q view.Query) (*RosterView, error) {
	eng, err := s.engines.Acquire(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	snapshot := eng.Snapshot()
	return &RosterView{
		Students:     s.projector.Project(snapshot, q),
		RosterSize:   len(snapshot),
		SyncDegraded: eng.SyncError() != nil,
	}, nil
}

// Get returns one student from the canonical list.
func (s *RosterService) Get(ctx context.Context, teacherID, id string) (*models.Student, error) {
	eng, err := s.engines.Acquire(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	for _, st := range eng.Snapshot() {
		if st.ID == id {
			return &st, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

// Create adds a student. The new identifier is delivered through the
// next snapshot, so the response carries no id.
func (s *RosterService) Create(ctx context.Context, teacherID string, req CreateStudentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	eng, err := s.engines.Acquire(ctx, teacherID)
	if err != nil {
		return err
	}
	return eng.Add(ctx, models.StudentFields{
		Name:        req.Name,
		RollNumber:  req.RollNumber,
		Course:      req.Course,
		Fee:         req.Fee,
		JoiningDate: req.JoiningDate,
		Phone:       req.Phone,
		Address:     req.Address,
		Note:        req.Note,
		FeePaid:     req.FeePaid,
	})
}

// Update merges a partial update into an existing student.
func (s *RosterService) Update(ctx context.Context, teacherID, id string, req UpdateStudentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	patch := models.StudentPatch{
		Name:        req.Name,
		RollNumber:  req.RollNumber,
		Course:      req.Course,
		Fee:         req.Fee,
		JoiningDate: req.JoiningDate,
		Phone:       req.Phone,
		Address:     req.Address,
		Note:        req.Note,
		FeePaid:     req.FeePaid,
	}
	if patch.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "no fields to update")
	}
	eng, err := s.engines.Acquire(ctx, teacherID)
	if err != nil {
		return err
	}
	return eng.Update(ctx, id, patch)
}

// Delete removes a student. Unconfirmed calls short-circuit: no store
// write happens until the human has agreed.
func (s *RosterService) Delete(ctx context.Context, teacherID, id string, confirmed bool) error {
	if !confirmed {
		return appErrors.Clone(appErrors.ErrConfirmationRequired, "deletion requires confirmation")
	}
	eng, err := s.engines.Acquire(ctx, teacherID)
	if err != nil {
		return err
	}
	return eng.Delete(ctx, id)
}

// SignOut tears down the teacher's session and subscription.
func (s *RosterService) SignOut(teacherID string) bool {
	return s.engines.Release(teacherID)
}
