package models

import "time"

// ConflictType tags hard-constraint violations found in a candidate timetable.
type ConflictType string

const (
	ConflictFacultyClash    ConflictType = "faculty_clash"
	ConflictClassroomClash  ConflictType = "classroom_clash"
	ConflictBatchClash      ConflictType = "batch_clash"
	ConflictInvalidSlot     ConflictType = "invalid_slot"
	ConflictFacultyOverload ConflictType = "faculty_overload"
)

// TimetableEntry places one session of a subject for a batch with a faculty,
// a classroom and a time slot. The referenced entities are shared reference
// data and must not be modified through an entry.
type TimetableEntry struct {
	ID        string     `json:"id"`
	Subject   *Subject   `json:"subject"`
	Faculty   *Faculty   `json:"faculty"`
	Classroom *Classroom `json:"classroom"`
	Batch     *Batch     `json:"batch"`
	TimeSlot  *TimeSlot  `json:"timeSlot"`
}

// Clone returns an independent copy of the entry under a new identity.
func (e TimetableEntry) Clone(id string) TimetableEntry {
	e.ID = id
	return e
}

// Conflict describes one detected violation.
type Conflict struct {
	Type        ConflictType `json:"type"`
	Description string       `json:"description"`
	Entries     []string     `json:"entries"`
}

// Timetable is the rendered result of one generation run.
type Timetable struct {
	ID        string           `json:"id"`
	Entries   []TimetableEntry `json:"entries"`
	Fitness   float64          `json:"fitness"`
	Conflicts []Conflict       `json:"conflicts"`
	CreatedAt time.Time        `json:"createdAt"`
}

// FilterEntries returns a copy of the timetable holding only matching entries.
func (t Timetable) FilterEntries(keep func(TimetableEntry) bool) Timetable {
	filtered := make([]TimetableEntry, 0, len(t.Entries))
	for _, entry := range t.Entries {
		if keep(entry) {
			filtered = append(filtered, entry)
		}
	}
	t.Entries = filtered
	return t
}

// GenerationParams tunes the genetic search.
type GenerationParams struct {
	PopulationSize    int               `json:"populationSize"`
	Generations       int               `json:"generations"`
	MutationRate      float64           `json:"mutationRate"`
	CrossoverRate     float64           `json:"crossoverRate"`
	ElitismCount      int               `json:"elitismCount"`
	TournamentSize    int               `json:"tournamentSize"`
	SessionMinutes    int               `json:"sessionMinutes"`
	ExpandSessions    bool              `json:"expandSessions"`
	UnfulfilledPolicy UnfulfilledPolicy `json:"unfulfilledPolicy"`
}

// UnfulfilledPolicy controls what happens to requirements nobody can teach or host.
type UnfulfilledPolicy string

const (
	UnfulfilledWarn   UnfulfilledPolicy = "warn"
	UnfulfilledReject UnfulfilledPolicy = "reject"
)

// TimetableConstraints carries caller supplied scheduling constraints.
type TimetableConstraints struct {
	MaxClassesPerDay       int        `json:"maxClassesPerDay"`
	MinBreakBetweenClasses int        `json:"minBreakBetweenClasses"`
	PreferredTimeSlots     []TimeSlot `json:"preferredTimeSlots"`
	BlackoutSlots          []TimeSlot `json:"blackoutSlots"`
	EnforceFacultyCaps     bool       `json:"enforceFacultyCaps"`
}

// WarningType classifies non-fatal findings reported alongside a result.
type WarningType string

const (
	WarningUnfulfilledRequirement WarningType = "unfulfilled_requirement"
	WarningUnknownSubject         WarningType = "unknown_subject"
	WarningEmptySchedule          WarningType = "empty_schedule"
)

// Warning reports a requirement that shaped the result without failing it.
type Warning struct {
	Type      WarningType `json:"type"`
	Message   string      `json:"message"`
	BatchID   string      `json:"batchId,omitempty"`
	SubjectID string      `json:"subjectId,omitempty"`
}
