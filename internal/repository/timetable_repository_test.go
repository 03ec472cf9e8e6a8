package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-ga-api/internal/models"
)

type recordingObserver struct {
	labels []string
}

func (o *recordingObserver) ObserveDBQuery(label string, _ time.Duration) {
	o.labels = append(o.labels, label)
}

func newTimetableRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sampleRecord() models.TimetableRecord {
	slot := models.TimeSlot{ID: "1", Day: models.Monday, StartTime: "09:00", EndTime: "10:00", Duration: 60}
	return models.TimetableRecord{
		Timetable: models.Timetable{
			ID: "tt-1",
			Entries: []models.TimetableEntry{{
				ID:        "e-1",
				Subject:   &models.Subject{ID: "s1", Code: "CS101"},
				Faculty:   &models.Faculty{ID: "f1", Name: "Dr. Rao"},
				Classroom: &models.Classroom{ID: "r1", Name: "A-101", Capacity: 40},
				Batch:     &models.Batch{ID: "b1", Name: "CSE-A", Strength: 30},
				TimeSlot:  &slot,
			}},
			Fitness:   1058.3,
			Conflicts: []models.Conflict{},
		},
		Statistics: models.TimetableStatistics{Fitness: 1058.3, TotalEntries: 1, StopReason: "perfect_solution"},
	}
}

func TestTimetableRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	observer := &recordingObserver{}
	repo := NewTimetableRepository(db, observer)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetables")).
		WithArgs("tt-1", 1058.3, 0, 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := sampleRecord()
	require.NoError(t, repo.Create(context.Background(), &record))
	assert.False(t, record.CreatedAt.IsZero())
	assert.Equal(t, []string{"timetable_create"}, observer.labels)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db, nil)

	record := sampleRecord()
	payload, err := json.Marshal(record)
	require.NoError(t, err)
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "fitness", "conflict_count", "total_entries", "payload", "created_at"}).
		AddRow("tt-1", 1058.3, 0, 1, types.JSONText(payload), created)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, fitness, conflict_count, total_entries, payload, created_at FROM timetables WHERE id = $1")).
		WithArgs("tt-1").
		WillReturnRows(rows)

	found, err := repo.FindByID(context.Background(), "tt-1")
	require.NoError(t, err)
	assert.Equal(t, "tt-1", found.ID)
	assert.Equal(t, created, found.CreatedAt)
	require.Len(t, found.Entries, 1)
	assert.Equal(t, "CSE-A", found.Entries[0].Batch.Name)
	assert.Equal(t, "perfect_solution", found.Statistics.StopReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM timetables WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListPaged(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db, nil)

	payload, err := json.Marshal(sampleRecord())
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM timetables")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetables ORDER BY created_at DESC LIMIT $1 OFFSET $2")).
		WithArgs(2, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "fitness", "conflict_count", "total_entries", "payload", "created_at"}).
			AddRow("tt-1", 1058.3, 0, 1, types.JSONText(payload), time.Now()))

	records, total, err := repo.List(context.Background(), TimetableFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, records, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositorySaveAndLoadProblem(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db, nil)

	problem := &models.ProblemData{
		Subjects: []models.Subject{{ID: "s1", HoursPerWeek: 3}},
		Batches:  []models.Batch{{ID: "b1", Subjects: []string{"s1"}}},
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_problems")).
		WithArgs("current", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.SaveProblem(context.Background(), problem))

	payload, err := json.Marshal(problem)
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, payload, submitted_at FROM timetable_problems WHERE id = $1")).
		WithArgs("current").
		WillReturnRows(sqlmock.NewRows([]string{"id", "payload", "submitted_at"}).AddRow("current", types.JSONText(payload), problem.SubmittedAt))

	loaded, err := repo.LatestProblem(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b1", loaded.Batches[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryResetCommits(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetables")).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_problems")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Reset(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryResetRollsBack(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetables")).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	assert.Error(t, repo.Reset(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
