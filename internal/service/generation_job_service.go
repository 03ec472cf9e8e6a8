package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-ga-api/internal/dto"
	"github.com/noah-isme/timetable-ga-api/internal/models"
	appErrors "github.com/noah-isme/timetable-ga-api/pkg/errors"
	"github.com/noah-isme/timetable-ga-api/pkg/jobs"
	"github.com/noah-isme/timetable-ga-api/pkg/logger"
)

// GenerationJobType tags queued generation jobs.
const GenerationJobType = "timetable_generation"

type generationRunner interface {
	Validate(req dto.GenerateTimetableRequest) (models.GenerationParams, int64, error)
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// GenerationJobConfig governs job retention.
type GenerationJobConfig struct {
	ResultTTL time.Duration
}

// GenerationJobService runs generations in the background and tracks their status.
type GenerationJobService struct {
	runner  generationRunner
	queue   jobDispatcher
	store   *generationJobStore
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewGenerationJobService constructs the service. Jobs are executed by Handle,
// which must be registered as the queue's handler.
func NewGenerationJobService(runner generationRunner, queue jobDispatcher, metrics *MetricsService, logger *zap.Logger, cfg GenerationJobConfig) *GenerationJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = time.Hour
	}
	now := func() time.Time { return time.Now().UTC() }
	return &GenerationJobService{
		runner:  runner,
		queue:   queue,
		store:   newGenerationJobStore(cfg.ResultTTL, now),
		metrics: metrics,
		logger:  logger,
		now:     now,
	}
}

// Submit validates the request and queues it.
func (s *GenerationJobService) Submit(ctx context.Context, req dto.GenerateTimetableRequest, createdBy string) (*models.GenerationJob, error) {
	if _, _, err := s.runner.Validate(req); err != nil {
		return nil, err
	}

	job := models.GenerationJob{
		ID:        uuid.NewString(),
		Status:    models.GenerationStatusQueued,
		CreatedBy: createdBy,
		CreatedAt: s.now(),
	}
	s.store.Save(job)
	s.metrics.TrackJobTransition("", job.Status)

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: GenerationJobType, Payload: req}); err != nil {
		s.fail(job.ID, err)
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Wrap(err, appErrors.ErrQueueFull.Code, appErrors.ErrQueueFull.Status, appErrors.ErrQueueFull.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue generation job")
	}

	logger.ForContext(ctx, s.logger).Info("generation job queued", zap.String("job_id", job.ID), zap.String("created_by", createdBy))
	return &job, nil
}

// Get returns the job status.
func (s *GenerationJobService) Get(_ context.Context, id string) (*models.GenerationJob, error) {
	job, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation job not found")
	}
	return &job, nil
}

// Handle processes a queue job. Client errors fail the job at once; other
// errors are returned so the queue may retry.
func (s *GenerationJobService) Handle(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.GenerateTimetableRequest)
	if !ok {
		s.fail(job.ID, fmt.Errorf("unexpected payload %T", job.Payload))
		return nil
	}

	started := s.now()
	s.transition(job.ID, func(j *models.GenerationJob) {
		j.Status = models.GenerationStatusRunning
		j.StartedAt = &started
		j.ErrorMessage = nil
	})

	resp, err := s.runner.Generate(ctx, req)
	if err != nil {
		if appErrors.IsClientError(err) {
			s.fail(job.ID, err)
			return nil
		}
		return err
	}

	finished := s.now()
	timetableID := resp.Timetable.ID
	s.transition(job.ID, func(j *models.GenerationJob) {
		j.Status = models.GenerationStatusFinished
		j.TimetableID = &timetableID
		j.FinishedAt = &finished
	})
	s.logger.Info("generation job finished",
		zap.String("job_id", job.ID),
		zap.String("timetable_id", timetableID),
		zap.Duration("elapsed", finished.Sub(started)),
	)
	return nil
}

// MarkFailed records a job the queue gave up on.
func (s *GenerationJobService) MarkFailed(job jobs.Job, err error) {
	s.fail(job.ID, err)
}

func (s *GenerationJobService) fail(id string, err error) {
	finished := s.now()
	msg := err.Error()
	s.transition(id, func(j *models.GenerationJob) {
		j.Status = models.GenerationStatusFailed
		j.ErrorMessage = &msg
		j.FinishedAt = &finished
	})
	s.logger.Warn("generation job failed", zap.String("job_id", id), zap.Error(err))
}

func (s *GenerationJobService) transition(id string, apply func(*models.GenerationJob)) {
	from, to, ok := s.store.Update(id, apply)
	if ok && from != to {
		s.metrics.TrackJobTransition(from, to)
	}
}

type generationJobStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]models.GenerationJob
}

func newGenerationJobStore(ttl time.Duration, now func() time.Time) *generationJobStore {
	return &generationJobStore{
		ttl:   ttl,
		now:   now,
		items: make(map[string]models.GenerationJob),
	}
}

func (s *generationJobStore) Save(job models.GenerationJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	s.items[job.ID] = job
}

func (s *generationJobStore) Get(id string) (models.GenerationJob, bool) {
	s.mu.RLock()
	job, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return models.GenerationJob{}, false
	}
	if s.expired(job) {
		s.Delete(id)
		return models.GenerationJob{}, false
	}
	return job, true
}

// Update applies fn to a stored job and reports the status change.
func (s *generationJobStore) Update(id string, fn func(*models.GenerationJob)) (from, to models.GenerationStatus, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.items[id]
	if !ok {
		return "", "", false
	}
	from = job.Status
	fn(&job)
	s.items[id] = job
	return from, job.Status, true
}

func (s *generationJobStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// expired only applies to finished jobs; queued and running ones are kept.
func (s *generationJobStore) expired(job models.GenerationJob) bool {
	if !job.Done() || job.FinishedAt == nil {
		return false
	}
	return s.now().Sub(*job.FinishedAt) > s.ttl
}

func (s *generationJobStore) evictLocked() {
	for id, job := range s.items {
		if s.expired(job) {
			delete(s.items, id)
		}
	}
}
