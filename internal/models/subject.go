package models

// ProgramLevel tags subjects and batches as undergraduate or postgraduate.
type ProgramLevel string

const (
	ProgramLevelUG ProgramLevel = "UG"
	ProgramLevelPG ProgramLevel = "PG"
)

// Subject represents a course taught to one or more batches.
type Subject struct {
	ID           string       `json:"id" validate:"required"`
	Name         string       `json:"name"`
	Code         string       `json:"code"`
	Credits      int          `json:"credits" validate:"gte=0"`
	HoursPerWeek int          `json:"hoursPerWeek" validate:"gte=0,lte=168"`
	Semester     int          `json:"semester" validate:"gte=0"`
	Type         ProgramLevel `json:"type" validate:"omitempty,oneof=UG PG"`
}
