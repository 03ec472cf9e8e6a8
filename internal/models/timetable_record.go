package models

import "time"

// TimetableStatistics summarises the run that produced a timetable.
type TimetableStatistics struct {
	Fitness          float64 `json:"fitness"`
	Conflicts        int     `json:"conflicts"`
	TotalEntries     int     `json:"totalEntries"`
	RequiredSessions int     `json:"requiredSessions"`
	Generations      int     `json:"generations"`
	StopReason       string  `json:"stopReason"`
	Seed             int64   `json:"seed"`
	DurationMs       int64   `json:"durationMs"`
}

// TimetableRecord is a generated timetable as it is stored and served.
type TimetableRecord struct {
	Timetable
	Statistics TimetableStatistics `json:"statistics"`
	Warnings   []Warning           `json:"warnings"`
}

// ForBatch narrows the record to one batch's entries.
func (r TimetableRecord) ForBatch(batchID string) TimetableRecord {
	r.Timetable = r.Timetable.FilterEntries(func(e TimetableEntry) bool {
		return e.Batch != nil && e.Batch.ID == batchID
	})
	return r
}

// ForFaculty narrows the record to one faculty's entries.
func (r TimetableRecord) ForFaculty(facultyID string) TimetableRecord {
	r.Timetable = r.Timetable.FilterEntries(func(e TimetableEntry) bool {
		return e.Faculty != nil && e.Faculty.ID == facultyID
	})
	return r
}

// ProblemData is the last problem submitted for generation.
type ProblemData struct {
	Subjects    []Subject            `json:"subjects"`
	Faculties   []Faculty            `json:"faculties"`
	Classrooms  []Classroom          `json:"classrooms"`
	Batches     []Batch              `json:"batches"`
	TimeSlots   []TimeSlot           `json:"timeSlots"`
	Constraints TimetableConstraints `json:"constraints"`
	SubmittedAt time.Time            `json:"submittedAt"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}
