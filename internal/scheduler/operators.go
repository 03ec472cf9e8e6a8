package scheduler

import (
	"github.com/noah-isme/timetable-ga-api/internal/models"
)

// DefaultTournamentSize is the number of contenders drawn per selection.
const DefaultTournamentSize = 3

// MutationKind names the field a point mutation rewrites.
type MutationKind int

const (
	MutateFaculty MutationKind = iota
	MutateClassroom
	MutateTimeSlot
)

func (k MutationKind) String() string {
	switch k {
	case MutateFaculty:
		return "faculty"
	case MutateClassroom:
		return "classroom"
	case MutateTimeSlot:
		return "time_slot"
	default:
		return "unknown"
	}
}

// TournamentSelect draws k individuals with replacement and returns the
// fittest. The earliest draw wins ties.
func TournamentSelect(pop []*Individual, k int, rng Rand) *Individual {
	if len(pop) == 0 {
		return nil
	}
	if k < 1 {
		k = DefaultTournamentSize
	}
	best := pop[rng.Intn(len(pop))]
	for i := 1; i < k; i++ {
		contender := pop[rng.Intn(len(pop))]
		if contender.Fitness > best.Fitness {
			best = contender
		}
	}
	return best
}

// Crossover cuts both parents at one point drawn from [0, min(len1, len2))
// and swaps the tails. The children own fresh copies of every entry and the
// parents are left untouched. When either parent is empty the cut is zero.
func Crossover(p1, p2 *Individual, rng Rand) (*Individual, *Individual) {
	shorter := len(p1.Entries)
	if len(p2.Entries) < shorter {
		shorter = len(p2.Entries)
	}
	cut := 0
	if shorter > 0 {
		cut = rng.Intn(shorter)
	}

	first := make([]models.TimetableEntry, 0, len(p2.Entries))
	first = copyEntries(first, p1.Entries[:cut], rng)
	first = copyEntries(first, p2.Entries[cut:], rng)

	second := make([]models.TimetableEntry, 0, len(p1.Entries))
	second = copyEntries(second, p2.Entries[:cut], rng)
	second = copyEntries(second, p1.Entries[cut:], rng)

	return NewIndividual(newID(rng), first), NewIndividual(newID(rng), second)
}

// Mutate rewrites one field of one randomly chosen entry in place. Faculty
// and classroom are only redrawn when more than one candidate exists; the
// time slot is always redrawn from the full catalog. changed reports whether
// a field was assigned, not whether its value differs.
func Mutate(ind *Individual, cat *Catalog, rng Rand) (index int, kind MutationKind, changed bool) {
	if len(ind.Entries) == 0 {
		return -1, 0, false
	}
	index = rng.Intn(len(ind.Entries))
	kind = MutationKind(rng.Intn(3))
	entry := &ind.Entries[index]

	switch kind {
	case MutateFaculty:
		if entry.Subject == nil {
			return index, kind, false
		}
		faculties := cat.QualifiedFaculty(entry.Subject.ID)
		if len(faculties) <= 1 {
			return index, kind, false
		}
		entry.Faculty = faculties[rng.Intn(len(faculties))]
	case MutateClassroom:
		rooms := cat.FittingClassrooms(entry.Batch)
		if len(rooms) <= 1 {
			return index, kind, false
		}
		entry.Classroom = rooms[rng.Intn(len(rooms))]
	case MutateTimeSlot:
		slots := cat.Slots()
		entry.TimeSlot = &slots[rng.Intn(len(slots))]
	}
	return index, kind, true
}
