package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/timetable-ga-api/internal/models"
)

// MemoryTimetableRepository keeps timetables in process memory. It is used
// when no database is configured and by tests.
type MemoryTimetableRepository struct {
	mu      sync.RWMutex
	records []models.TimetableRecord
	index   map[string]int
	problem *models.ProblemData
}

// NewMemoryTimetableRepository constructs an empty store.
func NewMemoryTimetableRepository() *MemoryTimetableRepository {
	return &MemoryTimetableRepository{index: make(map[string]int)}
}

// Create stores a record, assigning id and timestamp when missing.
func (r *MemoryTimetableRepository) Create(_ context.Context, record *models.TimetableRecord) error {
	if record == nil {
		return fmt.Errorf("timetable payload is nil")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.index[record.ID]; exists {
		return fmt.Errorf("timetable %s already exists", record.ID)
	}
	r.index[record.ID] = len(r.records)
	r.records = append(r.records, *record)
	return nil
}

// FindByID returns sql.ErrNoRows when the id is unknown.
func (r *MemoryTimetableRepository) FindByID(_ context.Context, id string) (*models.TimetableRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pos, ok := r.index[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	record := r.records[pos]
	return &record, nil
}

// List returns records newest first.
func (r *MemoryTimetableRepository) List(_ context.Context, filter TimetableFilter) ([]models.TimetableRecord, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := len(r.records)
	newest := make([]models.TimetableRecord, 0, total)
	for i := total - 1; i >= 0; i-- {
		newest = append(newest, r.records[i])
	}
	if filter.PageSize <= 0 {
		return newest, total, nil
	}
	start := filter.Offset()
	if start >= total {
		return []models.TimetableRecord{}, total, nil
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return newest[start:end], total, nil
}

// SaveProblem replaces the stored problem.
func (r *MemoryTimetableRepository) SaveProblem(_ context.Context, problem *models.ProblemData) error {
	if problem == nil {
		return fmt.Errorf("problem payload is nil")
	}
	if problem.SubmittedAt.IsZero() {
		problem.SubmittedAt = time.Now().UTC()
	}
	copied := *problem
	r.mu.Lock()
	r.problem = &copied
	r.mu.Unlock()
	return nil
}

// LatestProblem returns sql.ErrNoRows when nothing was submitted.
func (r *MemoryTimetableRepository) LatestProblem(_ context.Context) (*models.ProblemData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.problem == nil {
		return nil, sql.ErrNoRows
	}
	copied := *r.problem
	return &copied, nil
}

// Reset drops every record and the stored problem.
func (r *MemoryTimetableRepository) Reset(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
	r.index = make(map[string]int)
	r.problem = nil
	return nil
}

// Ping always succeeds.
func (r *MemoryTimetableRepository) Ping(context.Context) error {
	return nil
}
