package scheduler

import (
	"github.com/noah-isme/timetable-ga-api/internal/models"
)

// BuildEntry draws one entry for the requirement: a uniformly chosen
// qualified faculty, a uniformly chosen classroom that seats the batch and a
// uniformly chosen slot. Faculty availability is not checked here; the
// evaluator reports it. The second return is false when no faculty or no
// classroom is eligible.
func (c *Catalog) BuildEntry(req Requirement, rng Rand) (models.TimetableEntry, bool) {
	faculties := c.QualifiedFaculty(req.Subject.ID)
	if len(faculties) == 0 {
		return models.TimetableEntry{}, false
	}
	faculty := faculties[rng.Intn(len(faculties))]

	rooms := c.FittingClassrooms(req.Batch)
	if len(rooms) == 0 {
		return models.TimetableEntry{}, false
	}
	room := rooms[rng.Intn(len(rooms))]

	slot := &c.slots[rng.Intn(len(c.slots))]

	return models.TimetableEntry{
		ID:        newID(rng),
		Subject:   req.Subject,
		Faculty:   faculty,
		Classroom: room,
		Batch:     req.Batch,
		TimeSlot:  slot,
	}, true
}

// BuildIndividual constructs one random individual covering every requirement.
func (c *Catalog) BuildIndividual(reqs []Requirement, expandSessions bool, rng Rand) *Individual {
	entries := make([]models.TimetableEntry, 0, len(reqs))
	for _, req := range reqs {
		for n := req.EntriesPlanned(expandSessions); n > 0; n-- {
			entry, ok := c.BuildEntry(req, rng)
			if !ok {
				break
			}
			entries = append(entries, entry)
		}
	}
	return NewIndividual(newID(rng), entries)
}
