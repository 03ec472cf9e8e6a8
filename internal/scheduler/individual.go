package scheduler

import (
	"github.com/noah-isme/timetable-ga-api/internal/models"
)

// Individual is one candidate timetable. Fitness and Conflicts describe the
// entries as of the last Evaluate call and go stale after any edit.
type Individual struct {
	ID        string
	Entries   []models.TimetableEntry
	Fitness   float64
	Conflicts []models.Conflict
}

// NewIndividual wraps entries the caller hands over; they must not be shared
// with another individual.
func NewIndividual(id string, entries []models.TimetableEntry) *Individual {
	if entries == nil {
		entries = []models.TimetableEntry{}
	}
	return &Individual{ID: id, Entries: entries}
}

// Clone copies the individual under a new identity. Every entry is copied
// with a regenerated id; fitness is kept and conflicts are left for the next
// evaluation.
func (i *Individual) Clone(rng Rand) *Individual {
	clone := NewIndividual(newID(rng), copyEntries(nil, i.Entries, rng))
	clone.Fitness = i.Fitness
	return clone
}

// Perfect reports whether the individual has no conflicts and a fitness at or
// above the base score.
func (i *Individual) Perfect() bool {
	return i.Fitness >= BaseFitness && len(i.Conflicts) == 0
}

// Timetable renders the individual as a result record.
func (i *Individual) Timetable() models.Timetable {
	conflicts := i.Conflicts
	if conflicts == nil {
		conflicts = []models.Conflict{}
	}
	return models.Timetable{
		ID:        i.ID,
		Entries:   i.Entries,
		Fitness:   i.Fitness,
		Conflicts: conflicts,
	}
}

func copyEntries(dst, src []models.TimetableEntry, rng Rand) []models.TimetableEntry {
	if dst == nil {
		dst = make([]models.TimetableEntry, 0, len(src))
	}
	for _, entry := range src {
		dst = append(dst, entry.Clone(newID(rng)))
	}
	return dst
}
