package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/roster-api/internal/models"
	"github.com/noah-isme/roster-api/pkg/config"
)

const (
	opCreate   = "create"
	opUpdate   = "update"
	opDelete   = "delete"
	opReminder = "reminder"
)

const studentColumns = `id, teacher_id, name, roll_number, course, fee, joining_date, phone, address, note, fee_paid, created_at, last_reminded`

const selectRosterQuery = `SELECT ` + studentColumns + ` FROM students WHERE teacher_id = $1 ORDER BY created_at, id`

const insertStudentQuery = `INSERT INTO students
	(id, teacher_id, name, roll_number, course, fee, joining_date, phone, address, note, fee_paid, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())`

// pendingOp is a local write not yet reconciled into an authoritative
// snapshot. Committed ops stay in the overlay until a re-query observes
// them, so optimistic emissions never lose acknowledged writes.
type pendingOp struct {
	seq       uint64
	kind      string
	id        string
	teacherID string
	fields    models.StudentFields
	patch     models.StudentPatch
	at        time.Time
	committed bool
}

// PostgresStore is the document-store collaborator: durable rows in
// Postgres, cross-writer change notification over redis pub/sub, and an
// optimistic overlay that surfaces local writes in snapshots before the
// database acknowledges them.
type PostgresStore struct {
	db     *sqlx.DB
	bus    *ChangeBus
	logger *zap.Logger
	cfg    config.RosterConfig

	mu      sync.Mutex
	opSeq   uint64
	pending map[string][]pendingOp
	subs    map[string]map[*subscription]struct{}
}

// NewPostgresStore constructs the store.
func NewPostgresStore(db *sqlx.DB, bus *ChangeBus, cfg config.RosterConfig, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SnapshotBuffer <= 0 {
		cfg.SnapshotBuffer = 16
	}
	if cfg.ResyncTimeout <= 0 {
		cfg.ResyncTimeout = 10 * time.Second
	}
	return &PostgresStore{
		db:      db,
		bus:     bus,
		logger:  logger,
		cfg:     cfg,
		pending: make(map[string][]pendingOp),
		subs:    make(map[string]map[*subscription]struct{}),
	}
}

// Subscribe opens a live snapshot stream for one teacher's roster.
func (s *PostgresStore) Subscribe(ctx context.Context, teacherID string) (Subscription, error) {
	if teacherID == "" {
		return nil, fmt.Errorf("store: teacher id required")
	}

	subCtx, cancel := context.WithCancel(ctx)
	pubsub := s.bus.Listen(subCtx, teacherID)
	// Confirm the bus subscription before the initial query so commits
	// landing in between are not missed.
	if _, err := pubsub.Receive(subCtx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, fmt.Errorf("change bus subscribe: %w", err)
	}

	sub := &subscription{
		store:     s,
		teacherID: teacherID,
		ctx:       subCtx,
		cancel:    cancel,
		ch:        make(chan Snapshot, s.cfg.SnapshotBuffer),
		kick:      make(chan struct{}, 1),
	}
	s.register(sub)
	go sub.run(pubsub)
	return sub, nil
}

// Create inserts a new roster document. The identifier is assigned here
// and delivered to readers only through the next snapshot.
func (s *PostgresStore) Create(ctx context.Context, teacherID string, fields models.StudentFields) error {
	id := uuid.NewString()
	seq := s.addPending(pendingOp{kind: opCreate, id: id, teacherID: teacherID, fields: fields, at: time.Now().UTC()})
	s.kickSubs(teacherID)

	_, err := s.db.ExecContext(ctx, insertStudentQuery,
		id, teacherID,
		fields.Name, fields.RollNumber, fields.Course, fields.Fee,
		fields.JoiningDate, fields.Phone, fields.Address, fields.Note, fields.FeePaid,
	)
	if err != nil {
		s.dropPending(teacherID, seq)
		s.kickSubs(teacherID)
		return fmt.Errorf("create student: %w", err)
	}

	s.markCommitted(teacherID, seq)
	s.publish(ctx, teacherID, opCreate, id)
	return nil
}

// Update merges a partial patch into an existing document.
func (s *PostgresStore) Update(ctx context.Context, teacherID, id string, patch models.StudentPatch) error {
	if patch.IsZero() {
		return fmt.Errorf("update student: empty patch")
	}
	seq := s.addPending(pendingOp{kind: opUpdate, id: id, teacherID: teacherID, patch: patch, at: time.Now().UTC()})
	s.kickSubs(teacherID)

	query, args := buildUpdateQuery(teacherID, id, patch)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.dropPending(teacherID, seq)
		s.kickSubs(teacherID)
		return fmt.Errorf("update student: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.dropPending(teacherID, seq)
		s.kickSubs(teacherID)
		return ErrNotFound
	}

	s.markCommitted(teacherID, seq)
	s.publish(ctx, teacherID, opUpdate, id)
	return nil
}

// Delete removes a document.
func (s *PostgresStore) Delete(ctx context.Context, teacherID, id string) error {
	seq := s.addPending(pendingOp{kind: opDelete, id: id, teacherID: teacherID, at: time.Now().UTC()})
	s.kickSubs(teacherID)

	res, err := s.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1 AND teacher_id = $2`, id, teacherID)
	if err != nil {
		s.dropPending(teacherID, seq)
		s.kickSubs(teacherID)
		return fmt.Errorf("delete student: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.dropPending(teacherID, seq)
		s.kickSubs(teacherID)
		return ErrNotFound
	}

	s.markCommitted(teacherID, seq)
	s.publish(ctx, teacherID, opDelete, id)
	return nil
}

// TouchReminder stamps last_reminded with the store clock.
func (s *PostgresStore) TouchReminder(ctx context.Context, teacherID, id string) error {
	seq := s.addPending(pendingOp{kind: opReminder, id: id, teacherID: teacherID, at: time.Now().UTC()})
	s.kickSubs(teacherID)

	res, err := s.db.ExecContext(ctx, `UPDATE students SET last_reminded = NOW() WHERE id = $1 AND teacher_id = $2`, id, teacherID)
	if err != nil {
		s.dropPending(teacherID, seq)
		s.kickSubs(teacherID)
		return fmt.Errorf("touch reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.dropPending(teacherID, seq)
		s.kickSubs(teacherID)
		return ErrNotFound
	}

	s.markCommitted(teacherID, seq)
	s.publish(ctx, teacherID, opReminder, id)
	return nil
}

func (s *PostgresStore) publish(ctx context.Context, teacherID, op, id string) {
	if err := s.bus.Publish(ctx, teacherID, op, id); err != nil {
		// The write is durable; remote subscribers will catch up on
		// their next resync. Local ones get the overlay view now.
		s.logger.Warn("change publish failed",
			zap.String("teacher_id", teacherID),
			zap.String("op", op),
			zap.Error(err))
		s.kickSubs(teacherID)
	}
}

func buildUpdateQuery(teacherID, id string, patch models.StudentPatch) (string, []interface{}) {
	sets := make([]string, 0, 9)
	args := make([]interface{}, 0, 11)

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.RollNumber != nil {
		add("roll_number", *patch.RollNumber)
	}
	if patch.Course != nil {
		add("course", *patch.Course)
	}
	if patch.Fee != nil {
		add("fee", *patch.Fee)
	}
	if patch.JoiningDate != nil {
		add("joining_date", *patch.JoiningDate)
	}
	if patch.Phone != nil {
		add("phone", *patch.Phone)
	}
	if patch.Address != nil {
		add("address", *patch.Address)
	}
	if patch.Note != nil {
		add("note", *patch.Note)
	}
	if patch.FeePaid != nil {
		add("fee_paid", *patch.FeePaid)
	}

	args = append(args, id)
	idPos := len(args)
	args = append(args, teacherID)

	query := fmt.Sprintf("UPDATE students SET %s WHERE id = $%d AND teacher_id = $%d",
		strings.Join(sets, ", "), idPos, idPos+1)
	return query, args
}

func (s *PostgresStore) register(sub *subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.subs[sub.teacherID]
	if set == nil {
		set = make(map[*subscription]struct{})
		s.subs[sub.teacherID] = set
	}
	set[sub] = struct{}{}
}

func (s *PostgresStore) unregister(sub *subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set := s.subs[sub.teacherID]; set != nil {
		delete(set, sub)
		if len(set) == 0 {
			delete(s.subs, sub.teacherID)
		}
	}
}

func (s *PostgresStore) kickSubs(teacherID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs[teacherID] {
		select {
		case sub.kick <- struct{}{}:
		default:
		}
	}
}

func (s *PostgresStore) addPending(op pendingOp) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opSeq++
	op.seq = s.opSeq
	s.pending[op.teacherID] = append(s.pending[op.teacherID], op)
	return op.seq
}

func (s *PostgresStore) dropPending(teacherID string, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := s.pending[teacherID]
	for i, op := range ops {
		if op.seq == seq {
			s.pending[teacherID] = append(ops[:i:i], ops[i+1:]...)
			break
		}
	}
	if len(s.pending[teacherID]) == 0 {
		delete(s.pending, teacherID)
	}
}

func (s *PostgresStore) markCommitted(teacherID string, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := s.pending[teacherID]
	for i := range ops {
		if ops[i].seq == seq {
			ops[i].committed = true
			break
		}
	}
}

// committedCutoff returns the seqs of ops already durable; a query that
// starts after this call is guaranteed to observe them.
func (s *PostgresStore) committedCutoff(teacherID string) []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var seqs []uint64
	for _, op := range s.pending[teacherID] {
		if op.committed {
			seqs = append(seqs, op.seq)
		}
	}
	return seqs
}

func (s *PostgresStore) clearPending(teacherID string, seqs []uint64) {
	if len(seqs) == 0 {
		return
	}
	drop := make(map[uint64]struct{}, len(seqs))
	for _, seq := range seqs {
		drop[seq] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := s.pending[teacherID]
	kept := ops[:0]
	for _, op := range ops {
		if _, ok := drop[op.seq]; !ok {
			kept = append(kept, op)
		}
	}
	if len(kept) == 0 {
		delete(s.pending, teacherID)
		return
	}
	s.pending[teacherID] = kept
}

// overlay merges pending local writes over an authoritative row set. The
// second return reports whether any unacknowledged write is included.
func (s *PostgresStore) overlay(teacherID string, rows []models.Student) ([]models.Student, bool) {
	s.mu.Lock()
	ops := append([]pendingOp(nil), s.pending[teacherID]...)
	s.mu.Unlock()

	out := append([]models.Student(nil), rows...)
	dirty := false
	for _, op := range ops {
		if !op.committed {
			dirty = true
		}
		switch op.kind {
		case opCreate:
			if indexOf(out, op.id) < 0 {
				out = append(out, studentFromFields(op.id, op.teacherID, op.fields, op.at))
			}
		case opUpdate:
			if i := indexOf(out, op.id); i >= 0 {
				out[i] = op.patch.Apply(out[i])
			}
		case opDelete:
			if i := indexOf(out, op.id); i >= 0 {
				out = append(out[:i], out[i+1:]...)
			}
		case opReminder:
			if i := indexOf(out, op.id); i >= 0 {
				at := op.at
				out[i].LastReminded = &at
			}
		}
	}
	return out, dirty
}

func indexOf(students []models.Student, id string) int {
	for i := range students {
		if students[i].ID == id {
			return i
		}
	}
	return -1
}

func studentFromFields(id, teacherID string, f models.StudentFields, at time.Time) models.Student {
	return models.Student{
		ID:          id,
		TeacherID:   teacherID,
		Name:        f.Name,
		RollNumber:  f.RollNumber,
		Course:      f.Course,
		Fee:         f.Fee,
		JoiningDate: f.JoiningDate,
		Phone:       f.Phone,
		Address:     f.Address,
		Note:        f.Note,
		FeePaid:     f.FeePaid,
		CreatedAt:   at,
	}
}
