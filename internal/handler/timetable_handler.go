package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-ga-api/internal/dto"
	"github.com/noah-isme/timetable-ga-api/internal/middleware"
	"github.com/noah-isme/timetable-ga-api/internal/models"
	appErrors "github.com/noah-isme/timetable-ga-api/pkg/errors"
	"github.com/noah-isme/timetable-ga-api/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	Get(ctx context.Context, id string) (*models.TimetableRecord, error)
	List(ctx context.Context, query dto.TimetableListQuery) ([]models.TimetableRecord, *models.Pagination, error)
	ByBatch(ctx context.Context, batchID string) ([]models.TimetableRecord, error)
	ByFaculty(ctx context.Context, facultyID string) ([]models.TimetableRecord, error)
	Data(ctx context.Context) (*dto.ProblemDataResponse, error)
	Reset(ctx context.Context) error
	Export(ctx context.Context, id string, query dto.ExportTimetableQuery) (*dto.ExportedFile, error)
}

type generationJobs interface {
	Submit(ctx context.Context, req dto.GenerateTimetableRequest, createdBy string) (*models.GenerationJob, error)
	Get(ctx context.Context, id string) (*models.GenerationJob, error)
}

// TimetableHandler exposes timetable generation endpoints.
type TimetableHandler struct {
	service timetableGenerator
	jobs    generationJobs
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc timetableGenerator, jobs generationJobs) *TimetableHandler {
	return &TimetableHandler{service: svc, jobs: jobs}
}

// Generate godoc
// @Summary Generate a timetable
// @Description Runs the genetic search synchronously and stores the best timetable found.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Scheduling problem"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SubmitJob godoc
// @Summary Queue a timetable generation
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Scheduling problem"
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /timetable/jobs [post]
func (h *TimetableHandler) SubmitJob(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	createdBy := ""
	if claims, ok := middleware.CurrentUser(c); ok {
		createdBy = claims.UserID
	}
	job, err := h.jobs.Submit(c.Request.Context(), req, createdBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	statusURL := jobStatusURL(c, job.ID)
	response.Accepted(c, statusURL, dto.GenerationJobResponse{
		Job:       *job,
		StatusURL: statusURL,
	})
}

// JobStatus godoc
// @Summary Get generation job status
// @Tags Timetable
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/jobs/{id} [get]
func (h *TimetableHandler) JobStatus(c *gin.Context) {
	job, err := h.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.GenerationJobResponse{Job: *job}, nil)
}

// List godoc
// @Summary List generated timetables
// @Tags Timetable
// @Produce json
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timetable/timetables [get]
func (h *TimetableHandler) List(c *gin.Context) {
	var query dto.TimetableListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pagination"))
		return
	}
	records, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Get a generated timetable
// @Tags Timetable
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/timetables/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Export godoc
// @Summary Download a timetable as CSV or PDF
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Timetable ID"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /timetable/timetables/{id}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	query := dto.ExportTimetableQuery{Format: dto.ExportFormat(c.Query("format"))}
	file, err := h.service.Export(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// ByBatch godoc
// @Summary Timetables narrowed to one batch
// @Tags Timetable
// @Produce json
// @Param batchId path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/timetables/batch/{batchId} [get]
func (h *TimetableHandler) ByBatch(c *gin.Context) {
	records, err := h.service.ByBatch(c.Request.Context(), c.Param("batchId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// ByFaculty godoc
// @Summary Timetables narrowed to one faculty
// @Tags Timetable
// @Produce json
// @Param facultyId path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/timetables/faculty/{facultyId} [get]
func (h *TimetableHandler) ByFaculty(c *gin.Context) {
	records, err := h.service.ByFaculty(c.Request.Context(), c.Param("facultyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Data godoc
// @Summary Last submitted problem and slot catalog
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/data [get]
func (h *TimetableHandler) Data(c *gin.Context) {
	data, err := h.service.Data(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil)
}

// Reset godoc
// @Summary Clear stored problem, timetables and cache
// @Tags Timetable
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /timetable/data [delete]
func (h *TimetableHandler) Reset(c *gin.Context) {
	if err := h.service.Reset(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "All data cleared successfully"}, nil)
}

func jobStatusURL(c *gin.Context, id string) string {
	path := c.FullPath()
	if path == "" {
		return ""
	}
	return path + "/" + id
}
