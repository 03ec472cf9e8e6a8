package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-ga-api/internal/dto"
	"github.com/noah-isme/timetable-ga-api/internal/models"
	"github.com/noah-isme/timetable-ga-api/internal/repository"
	"github.com/noah-isme/timetable-ga-api/internal/scheduler"
	appErrors "github.com/noah-isme/timetable-ga-api/pkg/errors"
)

type timetableCacheStub struct {
	items       map[string]models.TimetableRecord
	gets        int
	hits        int
	invalidated bool
}

func newTimetableCacheStub() *timetableCacheStub {
	return &timetableCacheStub{items: map[string]models.TimetableRecord{}}
}

func (c *timetableCacheStub) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.gets++
	record, ok := c.items[key]
	if !ok {
		return false, nil
	}
	c.hits++
	*(dest.(*models.TimetableRecord)) = record
	return true, nil
}

func (c *timetableCacheStub) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.items[key] = *(value.(*models.TimetableRecord))
	return nil
}

func (c *timetableCacheStub) InvalidateTimetables(context.Context) error {
	c.invalidated = true
	c.items = map[string]models.TimetableRecord{}
	return nil
}

func weekAvailability() []models.TimeSlot {
	slots := make([]models.TimeSlot, 0, len(models.WorkingDays))
	for _, day := range models.WorkingDays {
		slots = append(slots, models.TimeSlot{Day: day, StartTime: "08:00", EndTime: "17:00"})
	}
	return slots
}

func generateRequestFixture(batchIDs ...string) dto.GenerateTimetableRequest {
	if len(batchIDs) == 0 {
		batchIDs = []string{"b1"}
	}
	batches := make([]models.Batch, 0, len(batchIDs))
	for _, id := range batchIDs {
		batches = append(batches, models.Batch{ID: id, Name: "Batch " + id, Strength: 30, Subjects: []string{"s1"}})
	}
	seed := int64(42)
	population := 10
	generations := 5
	return dto.GenerateTimetableRequest{
		Subjects:   []models.Subject{{ID: "s1", Name: "Algorithms", Code: "CS201", HoursPerWeek: 3}},
		Faculties:  []models.Faculty{{ID: "f1", Name: "Dr. Rao", Subjects: []string{"s1"}, AvailableSlots: weekAvailability()}},
		Classrooms: []models.Classroom{{ID: "r1", Name: "Room 101", Capacity: 40}},
		Batches:    batches,
		Params: &dto.GenerationParamsRequest{
			PopulationSize: &population,
			Generations:    &generations,
			Seed:           &seed,
		},
	}
}

func newTimetableServiceFixture() (*TimetableService, *repository.MemoryTimetableRepository, *timetableCacheStub) {
	repo := repository.NewMemoryTimetableRepository()
	cache := newTimetableCacheStub()
	svc := NewTimetableService(repo, cache, NewMetricsService(), nil, nil, TimetableServiceConfig{
		Defaults:          scheduler.DefaultParams(),
		MaxPopulationSize: 100,
		MaxGenerations:    50,
		Timeout:           5 * time.Second,
	})
	return svc, repo, cache
}

func requireAppError(t *testing.T, err error, code string) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestTimetableServiceGenerateStoresRecord(t *testing.T) {
	svc, repo, cache := newTimetableServiceFixture()

	resp, err := svc.Generate(context.Background(), generateRequestFixture())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Timetable.ID)
	assert.Len(t, resp.Timetable.Entries, 1)
	assert.Empty(t, resp.Timetable.Conflicts)
	assert.Equal(t, 1, resp.Statistics.TotalEntries)
	assert.Equal(t, 1, resp.Statistics.RequiredSessions)
	assert.Equal(t, 0, resp.Statistics.Generations)
	assert.Equal(t, string(scheduler.StopPerfectSolution), resp.Statistics.StopReason)
	assert.Equal(t, int64(42), resp.Statistics.Seed)
	assert.InDelta(t, 1058.33, resp.Statistics.Fitness, 0.01)
	assert.NotNil(t, resp.Warnings)
	assert.Len(t, resp.History, 1)

	stored, err := repo.FindByID(context.Background(), resp.Timetable.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Timetable.Entries, stored.Entries)
	assert.Contains(t, cache.items, TimetableKey(resp.Timetable.ID))

	problem, err := repo.LatestProblem(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s1", problem.Subjects[0].ID)
}

func TestTimetableServiceGenerateIsReproducibleWithSeed(t *testing.T) {
	svc, _, _ := newTimetableServiceFixture()
	req := generateRequestFixture("b1", "b2")

	first, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, first.Timetable.ID, second.Timetable.ID)
	assert.Equal(t, first.Timetable.Entries, second.Timetable.Entries)
	assert.Equal(t, first.Statistics.Fitness, second.Statistics.Fitness)
}

func TestTimetableServiceGenerateValidation(t *testing.T) {
	svc, _, _ := newTimetableServiceFixture()

	req := generateRequestFixture()
	req.Subjects = nil
	_, err := svc.Generate(context.Background(), req)
	requireAppError(t, err, appErrors.ErrValidation.Code)

	req = generateRequestFixture()
	rate := 1.5
	req.Params.MutationRate = &rate
	_, err = svc.Generate(context.Background(), req)
	requireAppError(t, err, appErrors.ErrValidation.Code)

	req = generateRequestFixture()
	population := 500
	req.Params.PopulationSize = &population
	_, err = svc.Generate(context.Background(), req)
	appErr := requireAppError(t, err, appErrors.ErrValidation.Code)
	assert.Contains(t, appErr.Message, "populationSize exceeds limit 100")
}

func TestTimetableServiceGenerateBoundsWeeklyHours(t *testing.T) {
	svc, repo, _ := newTimetableServiceFixture()

	req := generateRequestFixture()
	req.Subjects[0].HoursPerWeek = 100000000
	_, err := svc.Generate(context.Background(), req)
	requireAppError(t, err, appErrors.ErrValidation.Code)

	_, err = repo.LatestProblem(context.Background())
	assert.Error(t, err)
}

func TestTimetableServiceGenerateWithCustomSlots(t *testing.T) {
	svc, _, _ := newTimetableServiceFixture()

	req := generateRequestFixture()
	req.TimeSlots = []models.TimeSlot{{ID: "sun", Day: models.Weekday("Sunday"), StartTime: "09:00", EndTime: "10:00", Duration: 60}}
	_, err := svc.Generate(context.Background(), req)
	requireAppError(t, err, appErrors.ErrValidation.Code)

	req = generateRequestFixture()
	req.TimeSlots = []models.TimeSlot{{ID: "tue", Day: models.Tuesday, StartTime: "09:00", EndTime: "10:00", Duration: 60}}
	resp, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Timetable.Entries)
	for _, entry := range resp.Timetable.Entries {
		require.NotNil(t, entry.TimeSlot)
		assert.Equal(t, "tue", entry.TimeSlot.ID)
	}
}

func TestTimetableServiceGenerateRejectsUnfulfilled(t *testing.T) {
	svc, repo, _ := newTimetableServiceFixture()
	req := generateRequestFixture()
	req.Batches[0].Subjects = []string{"s1", "s2"}
	req.Subjects = append(req.Subjects, models.Subject{ID: "s2", Name: "Compilers", Code: "CS301"})
	policy := string(models.UnfulfilledReject)
	req.Params.UnfulfilledPolicy = &policy

	_, err := svc.Generate(context.Background(), req)
	appErr := requireAppError(t, err, appErrors.ErrPreconditionFailed.Code)
	assert.Equal(t, http.StatusPreconditionFailed, appErr.Status)

	_, err = repo.LatestProblem(context.Background())
	assert.Error(t, err, "rejected problems are not stored")
}

func TestTimetableServiceGenerateWarnsUnfulfilled(t *testing.T) {
	svc, _, _ := newTimetableServiceFixture()
	req := generateRequestFixture()
	req.Batches[0].Subjects = []string{"s1", "s2"}
	req.Subjects = append(req.Subjects, models.Subject{ID: "s2", Name: "Compilers", Code: "CS301"})

	resp, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, models.WarningUnfulfilledRequirement, resp.Warnings[0].Type)
	assert.Equal(t, "s2", resp.Warnings[0].SubjectID)
	assert.Equal(t, 1, resp.Statistics.TotalEntries)
}

func TestTimetableServiceGetUsesCache(t *testing.T) {
	svc, _, cache := newTimetableServiceFixture()
	resp, err := svc.Generate(context.Background(), generateRequestFixture())
	require.NoError(t, err)

	record, err := svc.Get(context.Background(), resp.Timetable.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Timetable.ID, record.ID)
	assert.Equal(t, 1, cache.hits)

	_, err = svc.Get(context.Background(), "missing")
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestTimetableServiceListPaginates(t *testing.T) {
	svc, _, _ := newTimetableServiceFixture()
	for i := 0; i < 3; i++ {
		_, err := svc.Generate(context.Background(), generateRequestFixture())
		require.NoError(t, err)
	}

	records, pagination, err := svc.List(context.Background(), dto.TimetableListQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, &models.Pagination{Page: 2, PageSize: 2, TotalCount: 3}, pagination)

	_, pagination, err = svc.List(context.Background(), dto.TimetableListQuery{})
	require.NoError(t, err)
	assert.Equal(t, defaultTimetablePageSize, pagination.PageSize)
}

func TestTimetableServiceFiltersByBatchAndFaculty(t *testing.T) {
	svc, _, _ := newTimetableServiceFixture()
	_, err := svc.Generate(context.Background(), generateRequestFixture("b1", "b2"))
	require.NoError(t, err)

	byBatch, err := svc.ByBatch(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, byBatch, 1)
	for _, entry := range byBatch[0].Entries {
		assert.Equal(t, "b1", entry.Batch.ID)
	}
	assert.Len(t, byBatch[0].Entries, 1)

	none, err := svc.ByBatch(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, none)

	byFaculty, err := svc.ByFaculty(context.Background(), "f1")
	require.NoError(t, err)
	require.Len(t, byFaculty, 1)
	assert.Len(t, byFaculty[0].Entries, 2)
}

func TestTimetableServiceDataAndReset(t *testing.T) {
	svc, _, cache := newTimetableServiceFixture()

	empty, err := svc.Data(context.Background())
	require.NoError(t, err)
	assert.Empty(t, empty.Subjects)
	assert.NotNil(t, empty.Subjects)
	assert.Len(t, empty.TimeSlots, len(scheduler.DefaultTimeSlots()))
	assert.Nil(t, empty.SubmittedAt)

	resp, err := svc.Generate(context.Background(), generateRequestFixture())
	require.NoError(t, err)

	data, err := svc.Data(context.Background())
	require.NoError(t, err)
	require.Len(t, data.Subjects, 1)
	assert.Equal(t, "Algorithms", data.Subjects[0].Name)
	assert.NotNil(t, data.SubmittedAt)

	require.NoError(t, svc.Reset(context.Background()))
	assert.True(t, cache.invalidated)

	_, err = svc.Get(context.Background(), resp.Timetable.ID)
	requireAppError(t, err, appErrors.ErrNotFound.Code)
	cleared, err := svc.Data(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cleared.Batches)
}

func TestTimetableServiceExport(t *testing.T) {
	svc, _, _ := newTimetableServiceFixture()
	resp, err := svc.Generate(context.Background(), generateRequestFixture("b1", "b2"))
	require.NoError(t, err)

	csvFile, err := svc.Export(context.Background(), resp.Timetable.ID, dto.ExportTimetableQuery{})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", csvFile.ContentType)
	assert.Equal(t, "timetable_"+resp.Timetable.ID+".csv", csvFile.Filename)
	lines := bytes.Split(bytes.TrimSpace(csvFile.Data), []byte("\n"))
	assert.Len(t, lines, 3)
	assert.True(t, bytes.HasPrefix(lines[0], []byte("day,start_time,end_time")))

	pdfFile, err := svc.Export(context.Background(), resp.Timetable.ID, dto.ExportTimetableQuery{Format: dto.ExportFormatPDF})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdfFile.ContentType)
	assert.True(t, bytes.HasPrefix(pdfFile.Data, []byte("%PDF")))

	_, err = svc.Export(context.Background(), resp.Timetable.ID, dto.ExportTimetableQuery{Format: "xlsx"})
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestExportRowsSortByDayThenStart(t *testing.T) {
	entries := []models.TimetableEntry{
		{ID: "late", TimeSlot: &models.TimeSlot{Day: models.Tuesday, StartTime: "09:00", EndTime: "10:00"}},
		{ID: "noon", TimeSlot: &models.TimeSlot{Day: models.Monday, StartTime: "12:00", EndTime: "13:00"}},
		{ID: "early", TimeSlot: &models.TimeSlot{Day: models.Monday, StartTime: "08:00", EndTime: "09:00"}},
	}

	rows := exportRows(entries)
	require.Len(t, rows, 3)
	assert.Equal(t, "early", rows[0].EntryID)
	assert.Equal(t, "noon", rows[1].EntryID)
	assert.Equal(t, "late", rows[2].EntryID)
}
