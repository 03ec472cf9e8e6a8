package dto

import (
	"time"

	"github.com/noah-isme/timetable-ga-api/internal/models"
	"github.com/noah-isme/timetable-ga-api/internal/scheduler"
)

// GenerationParamsRequest overrides the configured search parameters. Nil
// fields keep their defaults; ranges are checked by the engine.
type GenerationParamsRequest struct {
	PopulationSize    *int     `json:"populationSize"`
	Generations       *int     `json:"generations"`
	MutationRate      *float64 `json:"mutationRate"`
	CrossoverRate     *float64 `json:"crossoverRate"`
	ElitismCount      *int     `json:"elitismCount"`
	TournamentSize    *int     `json:"tournamentSize"`
	SessionMinutes    *int     `json:"sessionMinutes"`
	ExpandSessions    *bool    `json:"expandSessions"`
	UnfulfilledPolicy *string  `json:"unfulfilledPolicy"`
	Seed              *int64   `json:"seed"`
}

// GenerateTimetableRequest is the payload of a generation run.
type GenerateTimetableRequest struct {
	Subjects    []models.Subject             `json:"subjects" validate:"required,min=1,dive"`
	Faculties   []models.Faculty             `json:"faculties" validate:"required,min=1,dive"`
	Classrooms  []models.Classroom           `json:"classrooms" validate:"required,min=1,dive"`
	Batches     []models.Batch               `json:"batches" validate:"required,min=1,dive"`
	TimeSlots   []models.TimeSlot            `json:"timeSlots" validate:"omitempty,dive"`
	Constraints *models.TimetableConstraints `json:"constraints"`
	Params      *GenerationParamsRequest     `json:"params"`
}

// GenerateTimetableResponse returns the stored record and the per-generation trace.
type GenerateTimetableResponse struct {
	Timetable  models.TimetableRecord     `json:"timetable"`
	Statistics models.TimetableStatistics `json:"statistics"`
	Warnings   []models.Warning           `json:"warnings"`
	History    []scheduler.GenerationStat `json:"history,omitempty"`
}

// TimetableListQuery pages the stored timetables.
type TimetableListQuery struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ExportFormat selects the rendering of an exported timetable.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportTimetableQuery selects the export format.
type ExportTimetableQuery struct {
	Format ExportFormat `form:"format" validate:"omitempty,oneof=csv pdf"`
}

// ExportedFile is a rendered timetable ready to download.
type ExportedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProblemDataResponse is the last submitted problem together with the slot catalog.
type ProblemDataResponse struct {
	Subjects    []models.Subject             `json:"subjects"`
	Faculties   []models.Faculty             `json:"faculties"`
	Classrooms  []models.Classroom           `json:"classrooms"`
	Batches     []models.Batch               `json:"batches"`
	TimeSlots   []models.TimeSlot            `json:"timeSlots"`
	Constraints *models.TimetableConstraints `json:"constraints,omitempty"`
	SubmittedAt *time.Time                   `json:"submittedAt,omitempty"`
}

// GenerationJobResponse reports an asynchronous generation.
type GenerationJobResponse struct {
	Job       models.GenerationJob `json:"job"`
	StatusURL string               `json:"statusUrl,omitempty"`
}

// IssueTokenRequest asks the CLI for a signed operator token.
type IssueTokenRequest struct {
	UserID string          `validate:"required"`
	Role   models.UserRole `validate:"required,oneof=SUPERADMIN ADMIN TEACHER STUDENT"`
	TTL    time.Duration   `validate:"gt=0"`
}
