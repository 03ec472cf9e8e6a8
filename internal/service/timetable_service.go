package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-ga-api/internal/dto"
	"github.com/noah-isme/timetable-ga-api/internal/models"
	"github.com/noah-isme/timetable-ga-api/internal/repository"
	"github.com/noah-isme/timetable-ga-api/internal/scheduler"
	appErrors "github.com/noah-isme/timetable-ga-api/pkg/errors"
	"github.com/noah-isme/timetable-ga-api/pkg/export"
	"github.com/noah-isme/timetable-ga-api/pkg/logger"
)

const (
	defaultTimetablePageSize = 20
	maxTimetablePageSize     = 100
)

type timetableStore interface {
	Create(ctx context.Context, record *models.TimetableRecord) error
	FindByID(ctx context.Context, id string) (*models.TimetableRecord, error)
	List(ctx context.Context, filter repository.TimetableFilter) ([]models.TimetableRecord, int, error)
	SaveProblem(ctx context.Context, problem *models.ProblemData) error
	LatestProblem(ctx context.Context) (*models.ProblemData, error)
	Reset(ctx context.Context) error
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	InvalidateTimetables(ctx context.Context) error
}

type csvRenderer interface {
	Render(rows []export.TimetableRow) ([]byte, error)
}

type pdfRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

// TimetableServiceConfig carries the configured search defaults and limits.
type TimetableServiceConfig struct {
	Defaults          models.GenerationParams
	MaxPopulationSize int
	MaxGenerations    int
	Timeout           time.Duration
	CacheTTL          time.Duration
}

// TimetableService runs generations and serves stored timetables.
type TimetableService struct {
	store     timetableStore
	cache     timetableCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableServiceConfig
	csv       csvRenderer
	pdf       pdfRenderer
	seed      func() int64
	now       func() time.Time
}

// NewTimetableService wires the generation pipeline.
func NewTimetableService(store timetableStore, cache timetableCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg TimetableServiceConfig) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Defaults.PopulationSize == 0 {
		cfg.Defaults = scheduler.DefaultParams()
	}
	cfg.Defaults = scheduler.NormalizeParams(cfg.Defaults)
	return &TimetableService{
		store:     store,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		seed:      func() int64 { return time.Now().UnixNano() },
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Validate checks the payload and resolves the effective parameters and seed.
func (s *TimetableService) Validate(req dto.GenerateTimetableRequest) (models.GenerationParams, int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.GenerationParams{}, 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}
	params, seed := s.resolveParams(req.Params)
	if err := scheduler.ValidateParams(params); err != nil {
		return models.GenerationParams{}, 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if s.cfg.MaxPopulationSize > 0 && params.PopulationSize > s.cfg.MaxPopulationSize {
		return models.GenerationParams{}, 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("populationSize exceeds limit %d", s.cfg.MaxPopulationSize))
	}
	if s.cfg.MaxGenerations > 0 && params.Generations > s.cfg.MaxGenerations {
		return models.GenerationParams{}, 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("generations exceeds limit %d", s.cfg.MaxGenerations))
	}
	return params, seed, nil
}

// Generate validates the request, runs the search and stores the best timetable.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	params, seed, err := s.Validate(req)
	if err != nil {
		return nil, err
	}

	var constraints models.TimetableConstraints
	if req.Constraints != nil {
		constraints = *req.Constraints
	}
	problem := scheduler.Problem{
		Subjects:    req.Subjects,
		Faculties:   req.Faculties,
		Classrooms:  req.Classrooms,
		Batches:     req.Batches,
		TimeSlots:   req.TimeSlots,
		Constraints: constraints,
	}

	engine, err := scheduler.NewEngine(problem, params, scheduler.NewRand(seed), s.logger)
	if err != nil {
		return nil, mapEngineError(err)
	}

	if err := s.store.SaveProblem(ctx, &models.ProblemData{
		Subjects:    req.Subjects,
		Faculties:   req.Faculties,
		Classrooms:  req.Classrooms,
		Batches:     req.Batches,
		TimeSlots:   req.TimeSlots,
		Constraints: constraints,
		SubmittedAt: s.now(),
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store problem data")
	}

	runCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	result, err := engine.Evolve(runCtx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timetable generation failed")
	}
	s.metrics.ObserveGeneration(result)
	if ctx.Err() != nil {
		return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, "generation cancelled before the timetable was stored")
	}

	record := buildRecord(result, seed)
	record.ID = uuid.NewString()
	record.CreatedAt = s.now()
	if err := s.store.Create(ctx, &record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store timetable")
	}
	_ = s.cacheSet(ctx, &record)

	logger.ForContext(ctx, s.logger).Info("timetable generated",
		zap.String("timetable_id", record.ID),
		zap.Int64("seed", seed),
		zap.Float64("fitness", record.Fitness),
		zap.Int("conflicts", record.Statistics.Conflicts),
		zap.Int("entries", record.Statistics.TotalEntries),
		zap.String("stop_reason", record.Statistics.StopReason),
	)

	return &dto.GenerateTimetableResponse{
		Timetable:  record,
		Statistics: record.Statistics,
		Warnings:   record.Warnings,
		History:    result.History,
	}, nil
}

// Get returns one stored timetable, reading through the cache.
func (s *TimetableService) Get(ctx context.Context, id string) (*models.TimetableRecord, error) {
	if s.cache != nil {
		var cached models.TimetableRecord
		hit, err := s.cache.Get(ctx, TimetableKey(id), &cached)
		if err == nil && hit {
			return &cached, nil
		}
	}

	record, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	_ = s.cacheSet(ctx, record)
	return record, nil
}

// List pages stored timetables newest first.
func (s *TimetableService) List(ctx context.Context, query dto.TimetableListQuery) ([]models.TimetableRecord, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pagination")
	}
	filter := repository.TimetableFilter{Page: query.Page, PageSize: query.PageSize}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultTimetablePageSize
	}
	if filter.PageSize > maxTimetablePageSize {
		filter.PageSize = maxTimetablePageSize
	}

	records, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	return records, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// ByBatch returns every stored timetable narrowed to the batch's entries.
// Timetables without such entries are omitted.
func (s *TimetableService) ByBatch(ctx context.Context, batchID string) ([]models.TimetableRecord, error) {
	return s.filtered(ctx, func(r models.TimetableRecord) models.TimetableRecord { return r.ForBatch(batchID) })
}

// ByFaculty returns every stored timetable narrowed to the faculty's entries.
func (s *TimetableService) ByFaculty(ctx context.Context, facultyID string) ([]models.TimetableRecord, error) {
	return s.filtered(ctx, func(r models.TimetableRecord) models.TimetableRecord { return r.ForFaculty(facultyID) })
}

func (s *TimetableService) filtered(ctx context.Context, narrow func(models.TimetableRecord) models.TimetableRecord) ([]models.TimetableRecord, error) {
	records, _, err := s.store.List(ctx, repository.TimetableFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	out := make([]models.TimetableRecord, 0, len(records))
	for _, record := range records {
		narrowed := narrow(record)
		if len(narrowed.Entries) == 0 {
			continue
		}
		out = append(out, narrowed)
	}
	return out, nil
}

// Data returns the last submitted problem and the slot catalog in use. Before
// any submission the lists are empty and the default week is reported.
func (s *TimetableService) Data(ctx context.Context) (*dto.ProblemDataResponse, error) {
	problem, err := s.store.LatestProblem(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load problem data")
	}

	resp := &dto.ProblemDataResponse{
		Subjects:   []models.Subject{},
		Faculties:  []models.Faculty{},
		Classrooms: []models.Classroom{},
		Batches:    []models.Batch{},
		TimeSlots:  scheduler.DefaultTimeSlots(),
	}
	if problem == nil {
		return resp, nil
	}
	if problem.Subjects != nil {
		resp.Subjects = problem.Subjects
	}
	if problem.Faculties != nil {
		resp.Faculties = problem.Faculties
	}
	if problem.Classrooms != nil {
		resp.Classrooms = problem.Classrooms
	}
	if problem.Batches != nil {
		resp.Batches = problem.Batches
	}
	if len(problem.TimeSlots) > 0 {
		resp.TimeSlots = problem.TimeSlots
	}
	constraints := problem.Constraints
	submitted := problem.SubmittedAt
	resp.Constraints = &constraints
	resp.SubmittedAt = &submitted
	return resp, nil
}

// Reset clears the stored problem, every timetable and the cache.
func (s *TimetableService) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear timetable data")
	}
	if s.cache != nil {
		if err := s.cache.InvalidateTimetables(ctx); err != nil {
			logger.ForContext(ctx, s.logger).Warn("timetable cache not cleared", zap.Error(err))
		}
	}
	logger.ForContext(ctx, s.logger).Info("timetable data cleared")
	return nil
}

// Export renders one stored timetable as CSV (default) or PDF.
func (s *TimetableService) Export(ctx context.Context, id string, query dto.ExportTimetableQuery) (*dto.ExportedFile, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rows := exportRows(record.Entries)

	switch query.Format {
	case dto.ExportFormatPDF:
		data, err := s.pdf.Render(export.Document{
			Title:    "Timetable " + record.ID,
			Subtitle: fmt.Sprintf("Fitness %.2f, %d conflicts, generated %s", record.Fitness, len(record.Conflicts), record.CreatedAt.Format(time.RFC3339)),
			Rows:     rows,
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &dto.ExportedFile{Filename: "timetable_" + record.ID + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		data, err := s.csv.Render(rows)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &dto.ExportedFile{Filename: "timetable_" + record.ID + ".csv", ContentType: "text/csv", Data: data}, nil
	}
}

func (s *TimetableService) cacheSet(ctx context.Context, record *models.TimetableRecord) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Set(ctx, TimetableKey(record.ID), record, s.cfg.CacheTTL)
}

func (s *TimetableService) resolveParams(req *dto.GenerationParamsRequest) (models.GenerationParams, int64) {
	params := s.cfg.Defaults
	if req == nil {
		return params, s.seed()
	}
	if req.PopulationSize != nil {
		params.PopulationSize = *req.PopulationSize
	}
	if req.Generations != nil {
		params.Generations = *req.Generations
	}
	if req.MutationRate != nil {
		params.MutationRate = *req.MutationRate
	}
	if req.CrossoverRate != nil {
		params.CrossoverRate = *req.CrossoverRate
	}
	if req.ElitismCount != nil {
		params.ElitismCount = *req.ElitismCount
	}
	if req.TournamentSize != nil {
		params.TournamentSize = *req.TournamentSize
	}
	if req.SessionMinutes != nil {
		params.SessionMinutes = *req.SessionMinutes
	}
	if req.ExpandSessions != nil {
		params.ExpandSessions = *req.ExpandSessions
	}
	if req.UnfulfilledPolicy != nil {
		params.UnfulfilledPolicy = models.UnfulfilledPolicy(*req.UnfulfilledPolicy)
	}
	seed := s.seed()
	if req.Seed != nil {
		seed = *req.Seed
	}
	return params, seed
}

func mapEngineError(err error) error {
	switch {
	case errors.Is(err, scheduler.ErrInvalidParams):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	case errors.Is(err, scheduler.ErrUnfulfilledRequirements):
		return appErrors.Wrap(err, appErrors.ErrPreconditionFailed.Code, appErrors.ErrPreconditionFailed.Status, err.Error())
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prepare generation")
	}
}

func buildRecord(result *scheduler.Result, seed int64) models.TimetableRecord {
	table := result.Best.Timetable()
	warnings := result.Warnings
	if warnings == nil {
		warnings = []models.Warning{}
	}
	return models.TimetableRecord{
		Timetable: table,
		Statistics: models.TimetableStatistics{
			Fitness:          table.Fitness,
			Conflicts:        len(table.Conflicts),
			TotalEntries:     len(table.Entries),
			RequiredSessions: result.RequiredSessions,
			Generations:      result.Generations,
			StopReason:       string(result.StopReason),
			Seed:             seed,
			DurationMs:       result.Duration.Milliseconds(),
		},
		Warnings: warnings,
	}
}

func exportRows(entries []models.TimetableEntry) []export.TimetableRow {
	sorted := append([]models.TimetableEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].TimeSlot, sorted[j].TimeSlot
		if a == nil || b == nil {
			return a != nil
		}
		if da, db := models.DayIndex(a.Day), models.DayIndex(b.Day); da != db {
			return da < db
		}
		return a.StartTime < b.StartTime
	})

	rows := make([]export.TimetableRow, 0, len(sorted))
	for _, entry := range sorted {
		row := export.TimetableRow{EntryID: entry.ID}
		if slot := entry.TimeSlot; slot != nil {
			row.Day = string(slot.Day)
			row.StartTime = slot.StartTime
			row.EndTime = slot.EndTime
		}
		if subject := entry.Subject; subject != nil {
			row.SubjectCode = subject.Code
			row.SubjectName = subject.Name
		}
		if faculty := entry.Faculty; faculty != nil {
			row.Faculty = faculty.Name
		}
		if room := entry.Classroom; room != nil {
			row.Classroom = room.Name
		}
		if batch := entry.Batch; batch != nil {
			row.Batch = batch.Name
		}
		rows = append(rows, row)
	}
	return rows
}
