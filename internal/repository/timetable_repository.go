package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/timetable-ga-api/internal/models"
)

const currentProblemID = "current"

// TimetableFilter pages through stored timetables. A zero PageSize returns
// every row.
type TimetableFilter struct {
	Page     int
	PageSize int
}

// Offset returns the row offset of the page.
func (f TimetableFilter) Offset() int {
	if f.Page <= 1 || f.PageSize <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// QueryObserver receives query timings.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

type timetableRow struct {
	ID            string         `db:"id"`
	Fitness       float64        `db:"fitness"`
	ConflictCount int            `db:"conflict_count"`
	TotalEntries  int            `db:"total_entries"`
	Payload       types.JSONText `db:"payload"`
	CreatedAt     time.Time      `db:"created_at"`
}

func (r timetableRow) record() (models.TimetableRecord, error) {
	var record models.TimetableRecord
	if err := json.Unmarshal(r.Payload, &record); err != nil {
		return models.TimetableRecord{}, fmt.Errorf("decode timetable %s: %w", r.ID, err)
	}
	record.ID = r.ID
	record.CreatedAt = r.CreatedAt
	return record, nil
}

type problemRow struct {
	ID          string         `db:"id"`
	Payload     types.JSONText `db:"payload"`
	SubmittedAt time.Time      `db:"submitted_at"`
}

// TimetableRepository persists generated timetables and the last submitted
// problem in PostgreSQL. Entries are stored as one JSONB payload per timetable.
type TimetableRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewTimetableRepository constructs repository.
func NewTimetableRepository(db *sqlx.DB, observer QueryObserver) *TimetableRepository {
	return &TimetableRepository{db: db, observer: observer}
}

func (r *TimetableRepository) observe(label string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveDBQuery(label, time.Since(start))
	}
}

// Create inserts a timetable record, assigning id and timestamp when missing.
func (r *TimetableRepository) Create(ctx context.Context, record *models.TimetableRecord) error {
	if record == nil {
		return fmt.Errorf("timetable payload is nil")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode timetable: %w", err)
	}
	row := timetableRow{
		ID:            record.ID,
		Fitness:       record.Fitness,
		ConflictCount: len(record.Conflicts),
		TotalEntries:  len(record.Entries),
		Payload:       types.JSONText(payload),
		CreatedAt:     record.CreatedAt,
	}

	defer r.observe("timetable_create", time.Now())
	const query = `
INSERT INTO timetables (id, fitness, conflict_count, total_entries, payload, created_at)
VALUES (:id, :fitness, :conflict_count, :total_entries, :payload, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("insert timetable: %w", err)
	}
	return nil
}

// FindByID loads one timetable. It returns sql.ErrNoRows when absent.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.TimetableRecord, error) {
	defer r.observe("timetable_find", time.Now())
	const query = `SELECT id, fitness, conflict_count, total_entries, payload, created_at FROM timetables WHERE id = $1`
	var row timetableRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	record, err := row.record()
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns timetables newest first together with the total count.
func (r *TimetableRepository) List(ctx context.Context, filter TimetableFilter) ([]models.TimetableRecord, int, error) {
	defer r.observe("timetable_list", time.Now())

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM timetables`); err != nil {
		return nil, 0, fmt.Errorf("count timetables: %w", err)
	}

	query := `SELECT id, fitness, conflict_count, total_entries, payload, created_at FROM timetables ORDER BY created_at DESC`
	args := []interface{}{}
	if filter.PageSize > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, filter.PageSize, filter.Offset())
	}

	var rows []timetableRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetables: %w", err)
	}
	records := make([]models.TimetableRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.record()
		if err != nil {
			return nil, 0, err
		}
		records = append(records, record)
	}
	return records, total, nil
}

// SaveProblem replaces the stored problem.
func (r *TimetableRepository) SaveProblem(ctx context.Context, problem *models.ProblemData) error {
	if problem == nil {
		return fmt.Errorf("problem payload is nil")
	}
	if problem.SubmittedAt.IsZero() {
		problem.SubmittedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(problem)
	if err != nil {
		return fmt.Errorf("encode problem: %w", err)
	}

	defer r.observe("problem_save", time.Now())
	const query = `
INSERT INTO timetable_problems (id, payload, submitted_at)
VALUES (:id, :payload, :submitted_at)
ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, submitted_at = EXCLUDED.submitted_at`
	row := problemRow{ID: currentProblemID, Payload: types.JSONText(payload), SubmittedAt: problem.SubmittedAt}
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("upsert problem: %w", err)
	}
	return nil
}

// LatestProblem returns the stored problem or sql.ErrNoRows.
func (r *TimetableRepository) LatestProblem(ctx context.Context) (*models.ProblemData, error) {
	defer r.observe("problem_latest", time.Now())
	const query = `SELECT id, payload, submitted_at FROM timetable_problems WHERE id = $1`
	var row problemRow
	if err := r.db.GetContext(ctx, &row, query, currentProblemID); err != nil {
		return nil, err
	}
	var problem models.ProblemData
	if err := json.Unmarshal(row.Payload, &problem); err != nil {
		return nil, fmt.Errorf("decode problem: %w", err)
	}
	problem.SubmittedAt = row.SubmittedAt
	return &problem, nil
}

// Reset removes every timetable and the stored problem in one transaction.
func (r *TimetableRepository) Reset(ctx context.Context) (err error) {
	defer r.observe("timetable_reset", time.Now())
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM timetables`); err != nil {
		return fmt.Errorf("delete timetables: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM timetable_problems`); err != nil {
		return fmt.Errorf("delete problems: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (r *TimetableRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

