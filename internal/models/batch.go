package models

// Batch is a cohort of students that attends the same subjects.
type Batch struct {
	ID       string       `json:"id" validate:"required"`
	Name     string       `json:"name"`
	Semester int          `json:"semester" validate:"gte=0"`
	Strength int          `json:"strength" validate:"gte=0"`
	Subjects []string     `json:"subjects"`
	Type     ProgramLevel `json:"type" validate:"omitempty,oneof=UG PG"`
}
