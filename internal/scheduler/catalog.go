package scheduler

import (
	"fmt"

	"github.com/noah-isme/timetable-ga-api/internal/models"
)

// Problem is one complete scheduling instance. The engine copies it on
// construction and never reads it again.
type Problem struct {
	Subjects    []models.Subject
	Faculties   []models.Faculty
	Classrooms  []models.Classroom
	Batches     []models.Batch
	TimeSlots   []models.TimeSlot
	Constraints models.TimetableConstraints
}

// Catalog is the read-only index over a problem's reference data. Every entry
// built from it points into the catalog's own copies, which are never mutated,
// so a Catalog is safe for concurrent use.
type Catalog struct {
	subjects   []models.Subject
	faculties  []models.Faculty
	classrooms []models.Classroom
	batches    []models.Batch
	slots      []models.TimeSlot

	subjectByID map[string]*models.Subject
	qualified   map[string][]*models.Faculty
	fitting     map[string][]*models.Classroom
}

// NewCatalog indexes the problem. Slots outside the working week are dropped;
// when no slot remains the default week is used.
func NewCatalog(problem Problem) *Catalog {
	c := &Catalog{
		subjects:   append([]models.Subject(nil), problem.Subjects...),
		faculties:  append([]models.Faculty(nil), problem.Faculties...),
		classrooms: append([]models.Classroom(nil), problem.Classrooms...),
		batches:    append([]models.Batch(nil), problem.Batches...),
	}
	for _, slot := range problem.TimeSlots {
		if models.DayIndex(slot.Day) < 0 {
			continue
		}
		c.slots = append(c.slots, slot)
	}
	if len(c.slots) == 0 {
		c.slots = DefaultTimeSlots()
	}

	c.subjectByID = make(map[string]*models.Subject, len(c.subjects))
	for i := range c.subjects {
		if _, dup := c.subjectByID[c.subjects[i].ID]; dup {
			continue
		}
		c.subjectByID[c.subjects[i].ID] = &c.subjects[i]
	}

	c.qualified = make(map[string][]*models.Faculty, len(c.subjectByID))
	for id := range c.subjectByID {
		for i := range c.faculties {
			if c.faculties[i].Teaches(id) {
				c.qualified[id] = append(c.qualified[id], &c.faculties[i])
			}
		}
	}

	c.fitting = make(map[string][]*models.Classroom, len(c.batches))
	for i := range c.batches {
		batch := &c.batches[i]
		if _, done := c.fitting[batch.ID]; done {
			continue
		}
		rooms := make([]*models.Classroom, 0, len(c.classrooms))
		for j := range c.classrooms {
			if c.classrooms[j].Fits(batch) {
				rooms = append(rooms, &c.classrooms[j])
			}
		}
		c.fitting[batch.ID] = rooms
	}
	return c
}

// Slots returns the time-slot catalog searched for time assignment.
func (c *Catalog) Slots() []models.TimeSlot {
	return c.slots
}

// QualifiedFaculty lists faculty able to teach the subject.
func (c *Catalog) QualifiedFaculty(subjectID string) []*models.Faculty {
	return c.qualified[subjectID]
}

// FittingClassrooms lists classrooms that seat the batch.
func (c *Catalog) FittingClassrooms(batch *models.Batch) []*models.Classroom {
	if batch == nil {
		return nil
	}
	if rooms, ok := c.fitting[batch.ID]; ok {
		return rooms
	}
	rooms := make([]*models.Classroom, 0, len(c.classrooms))
	for j := range c.classrooms {
		if c.classrooms[j].Fits(batch) {
			rooms = append(rooms, &c.classrooms[j])
		}
	}
	return rooms
}

// Warnings reports unknown subject references and requirements that can
// never be filled. The list is stable for a given problem.
func (c *Catalog) Warnings(reqs []Requirement) []models.Warning {
	var warnings []models.Warning
	for i := range c.batches {
		batch := &c.batches[i]
		for _, subjectID := range batch.Subjects {
			if _, ok := c.subjectByID[subjectID]; ok {
				continue
			}
			warnings = append(warnings, models.Warning{
				Type:      models.WarningUnknownSubject,
				Message:   fmt.Sprintf("batch %s references unknown subject %s", batch.Name, subjectID),
				BatchID:   batch.ID,
				SubjectID: subjectID,
			})
		}
	}
	for _, req := range reqs {
		reason := ""
		switch {
		case len(c.QualifiedFaculty(req.Subject.ID)) == 0:
			reason = "no faculty is qualified to teach it"
		case len(c.FittingClassrooms(req.Batch)) == 0:
			reason = fmt.Sprintf("no classroom seats %d students", req.Batch.Strength)
		default:
			continue
		}
		warnings = append(warnings, models.Warning{
			Type:      models.WarningUnfulfilledRequirement,
			Message:   fmt.Sprintf("subject %s for batch %s cannot be scheduled: %s", req.Subject.Code, req.Batch.Name, reason),
			BatchID:   req.Batch.ID,
			SubjectID: req.Subject.ID,
		})
	}
	return warnings
}
