package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-ga-api/internal/dto"
	"github.com/noah-isme/timetable-ga-api/internal/models"
	appErrors "github.com/noah-isme/timetable-ga-api/pkg/errors"
	"github.com/noah-isme/timetable-ga-api/pkg/jobs"
)

type dispatcherStub struct {
	jobs []jobs.Job
	err  error
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type runnerStub struct {
	validateErr error
	generateErr error
	timetableID string
	calls       int
}

func (r *runnerStub) Validate(dto.GenerateTimetableRequest) (models.GenerationParams, int64, error) {
	return models.GenerationParams{}, 1, r.validateErr
}

func (r *runnerStub) Generate(context.Context, dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	r.calls++
	if r.generateErr != nil {
		return nil, r.generateErr
	}
	resp := &dto.GenerateTimetableResponse{}
	resp.Timetable.ID = r.timetableID
	return resp, nil
}

func TestGenerationJobServiceLifecycle(t *testing.T) {
	runner := &runnerStub{timetableID: "tt-1"}
	queue := &dispatcherStub{}
	svc := NewGenerationJobService(runner, queue, NewMetricsService(), nil, GenerationJobConfig{})

	job, err := svc.Submit(context.Background(), generateRequestFixture(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusQueued, job.Status)
	assert.Equal(t, "user-1", job.CreatedBy)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, job.ID, queue.jobs[0].ID)
	assert.Equal(t, GenerationJobType, queue.jobs[0].Type)

	require.NoError(t, svc.Handle(context.Background(), queue.jobs[0]))

	done, err := svc.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusFinished, done.Status)
	require.NotNil(t, done.TimetableID)
	assert.Equal(t, "tt-1", *done.TimetableID)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.FinishedAt)
	assert.True(t, done.Done())
}

func TestGenerationJobServiceSubmitValidates(t *testing.T) {
	runner := &runnerStub{validateErr: appErrors.Clone(appErrors.ErrValidation, "bad payload")}
	queue := &dispatcherStub{}
	svc := NewGenerationJobService(runner, queue, nil, nil, GenerationJobConfig{})

	_, err := svc.Submit(context.Background(), dto.GenerateTimetableRequest{}, "")
	requireAppError(t, err, appErrors.ErrValidation.Code)
	assert.Empty(t, queue.jobs)
}

func TestGenerationJobServiceQueueFull(t *testing.T) {
	queue := &dispatcherStub{err: jobs.ErrQueueFull}
	svc := NewGenerationJobService(&runnerStub{}, queue, nil, nil, GenerationJobConfig{})

	_, err := svc.Submit(context.Background(), generateRequestFixture(), "")
	appErr := requireAppError(t, err, appErrors.ErrQueueFull.Code)
	assert.Equal(t, 503, appErr.Status)
}

func TestGenerationJobServiceClientErrorFailsImmediately(t *testing.T) {
	runner := &runnerStub{generateErr: appErrors.Clone(appErrors.ErrPreconditionFailed, "unfulfilled requirements")}
	queue := &dispatcherStub{}
	svc := NewGenerationJobService(runner, queue, nil, nil, GenerationJobConfig{})

	job, err := svc.Submit(context.Background(), generateRequestFixture(), "")
	require.NoError(t, err)
	require.NoError(t, svc.Handle(context.Background(), queue.jobs[0]))

	failed, err := svc.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusFailed, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
	assert.Contains(t, *failed.ErrorMessage, "unfulfilled requirements")
}

func TestGenerationJobServiceServerErrorIsRetried(t *testing.T) {
	boom := errors.New("database down")
	runner := &runnerStub{generateErr: boom}
	queue := &dispatcherStub{}
	svc := NewGenerationJobService(runner, queue, nil, nil, GenerationJobConfig{})

	job, err := svc.Submit(context.Background(), generateRequestFixture(), "")
	require.NoError(t, err)

	err = svc.Handle(context.Background(), queue.jobs[0])
	assert.ErrorIs(t, err, boom)
	running, err := svc.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusRunning, running.Status)

	svc.MarkFailed(queue.jobs[0], boom)
	failed, err := svc.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusFailed, failed.Status)
}

func TestGenerationJobServiceExpiresFinishedJobs(t *testing.T) {
	queue := &dispatcherStub{}
	svc := NewGenerationJobService(&runnerStub{timetableID: "tt"}, queue, nil, nil, GenerationJobConfig{ResultTTL: time.Minute})
	current := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }
	svc.now = clock
	svc.store.now = clock

	job, err := svc.Submit(context.Background(), generateRequestFixture(), "")
	require.NoError(t, err)
	require.NoError(t, svc.Handle(context.Background(), queue.jobs[0]))

	_, err = svc.Get(context.Background(), job.ID)
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)
	_, err = svc.Get(context.Background(), job.ID)
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestGenerationJobServiceRunsOnQueue(t *testing.T) {
	runner := &runnerStub{timetableID: "tt-queue"}
	var svc *GenerationJobService
	queue := jobs.NewQueue("generation-test", func(ctx context.Context, job jobs.Job) error {
		return svc.Handle(ctx, job)
	}, jobs.QueueConfig{Workers: 1})
	svc = NewGenerationJobService(runner, queue, nil, nil, GenerationJobConfig{})
	queue.Start(context.Background())
	defer queue.Stop()

	job, err := svc.Submit(context.Background(), generateRequestFixture(), "")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		current, err := svc.Get(context.Background(), job.ID)
		return err == nil && current.Status == models.GenerationStatusFinished
	}, 2*time.Second, 10*time.Millisecond)
}
