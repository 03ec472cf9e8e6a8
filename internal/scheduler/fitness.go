package scheduler

import (
	"fmt"
	"math"

	"github.com/noah-isme/timetable-ga-api/internal/models"
)

const (
	// BaseFitness is the score of a timetable with no conflicts before the
	// distribution bonus.
	BaseFitness = 1000.0
	// ConflictPenalty is subtracted once per detected conflict.
	ConflictPenalty = 10.0
	// DayBonusCeiling is the most a single day can add to the distribution bonus.
	DayBonusCeiling = 10.0
)

// Evaluate scores the individual and stores the fitness and conflict list on
// it. The result depends only on the entries and constraints.
func Evaluate(ind *Individual, constraints models.TimetableConstraints) (float64, []models.Conflict) {
	conflicts := make([]models.Conflict, 0)
	conflicts = append(conflicts, detectClashes(ind.Entries, models.ConflictFacultyClash, facultyOf)...)
	conflicts = append(conflicts, detectClashes(ind.Entries, models.ConflictClassroomClash, classroomOf)...)
	conflicts = append(conflicts, detectClashes(ind.Entries, models.ConflictBatchClash, batchOf)...)
	conflicts = append(conflicts, detectInvalidSlots(ind.Entries)...)
	if constraints.EnforceFacultyCaps {
		conflicts = append(conflicts, detectFacultyOverload(ind.Entries)...)
	}

	fitness := BaseFitness - ConflictPenalty*float64(len(conflicts))
	fitness += DistributionBonus(ind.Entries)
	fitness = math.Max(0, fitness)

	ind.Fitness = fitness
	ind.Conflicts = conflicts
	return fitness, conflicts
}

// DistributionBonus rewards an even spread of sessions over the six working
// days. Empty timetables earn nothing.
func DistributionBonus(entries []models.TimetableEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	days := len(models.WorkingDays)
	perDay := make([]int, days)
	counted := 0
	for _, entry := range entries {
		if entry.TimeSlot == nil {
			continue
		}
		if idx := models.DayIndex(entry.TimeSlot.Day); idx >= 0 {
			perDay[idx]++
			counted++
		}
	}
	if counted == 0 {
		return 0
	}
	avg := float64(counted) / float64(days)
	var bonus float64
	for _, count := range perDay {
		bonus += math.Max(0, DayBonusCeiling-math.Abs(float64(count)-avg))
	}
	return bonus
}

type resource struct {
	kind string
	id   string
	name string
}

func facultyOf(e models.TimetableEntry) (resource, bool) {
	if e.Faculty == nil {
		return resource{}, false
	}
	return resource{kind: "Faculty", id: e.Faculty.ID, name: e.Faculty.Name}, true
}

func classroomOf(e models.TimetableEntry) (resource, bool) {
	if e.Classroom == nil {
		return resource{}, false
	}
	return resource{kind: "Classroom", id: e.Classroom.ID, name: e.Classroom.Name}, true
}

func batchOf(e models.TimetableEntry) (resource, bool) {
	if e.Batch == nil {
		return resource{}, false
	}
	return resource{kind: "Batch", id: e.Batch.ID, name: e.Batch.Name}, true
}

// detectClashes emits one conflict for every entry that lands on a
// (day, start) its resource already occupies, so N colliding entries yield
// N-1 conflicts.
func detectClashes(entries []models.TimetableEntry, kind models.ConflictType, key func(models.TimetableEntry) (resource, bool)) []models.Conflict {
	occupied := make(map[string]map[string]struct{})
	var conflicts []models.Conflict
	for _, entry := range entries {
		res, ok := key(entry)
		if !ok || entry.TimeSlot == nil {
			continue
		}
		slotKey := entry.TimeSlot.ClashKey()
		seen := occupied[res.id]
		if seen == nil {
			seen = make(map[string]struct{})
			occupied[res.id] = seen
		}
		if _, taken := seen[slotKey]; taken {
			conflicts = append(conflicts, models.Conflict{
				Type:        kind,
				Description: fmt.Sprintf("%s %s has multiple classes at %s", res.kind, res.name, slotKey),
				Entries:     []string{entry.ID},
			})
			continue
		}
		seen[slotKey] = struct{}{}
	}
	return conflicts
}

// detectInvalidSlots flags entries whose faculty is unavailable for the slot,
// then entries whose classroom cannot seat the batch.
func detectInvalidSlots(entries []models.TimetableEntry) []models.Conflict {
	var conflicts []models.Conflict
	for _, entry := range entries {
		if entry.Faculty == nil || entry.TimeSlot == nil {
			continue
		}
		if !entry.Faculty.AvailableFor(entry.TimeSlot) {
			conflicts = append(conflicts, models.Conflict{
				Type:        models.ConflictInvalidSlot,
				Description: fmt.Sprintf("Faculty %s not available at %s %s", entry.Faculty.Name, entry.TimeSlot.Day, entry.TimeSlot.StartTime),
				Entries:     []string{entry.ID},
			})
		}
	}
	for _, entry := range entries {
		if entry.Classroom == nil || entry.Batch == nil {
			continue
		}
		if !entry.Classroom.Fits(entry.Batch) {
			conflicts = append(conflicts, models.Conflict{
				Type:        models.ConflictInvalidSlot,
				Description: fmt.Sprintf("Classroom %s capacity insufficient for batch %s", entry.Classroom.Name, entry.Batch.Name),
				Entries:     []string{entry.ID},
			})
		}
	}
	return conflicts
}

// detectFacultyOverload flags every session beyond a faculty's daily or weekly
// cap. A cap of zero is treated as unlimited.
func detectFacultyOverload(entries []models.TimetableEntry) []models.Conflict {
	daily := make(map[string]map[models.Weekday]int)
	weekly := make(map[string]int)
	var conflicts []models.Conflict
	for _, entry := range entries {
		faculty := entry.Faculty
		if faculty == nil || entry.TimeSlot == nil {
			continue
		}
		if daily[faculty.ID] == nil {
			daily[faculty.ID] = make(map[models.Weekday]int)
		}
		daily[faculty.ID][entry.TimeSlot.Day]++
		weekly[faculty.ID]++

		if faculty.MaxHoursPerDay > 0 && daily[faculty.ID][entry.TimeSlot.Day] > faculty.MaxHoursPerDay {
			conflicts = append(conflicts, models.Conflict{
				Type:        models.ConflictFacultyOverload,
				Description: fmt.Sprintf("Faculty %s exceeds %d classes on %s", faculty.Name, faculty.MaxHoursPerDay, entry.TimeSlot.Day),
				Entries:     []string{entry.ID},
			})
		}
		if faculty.MaxHoursPerWeek > 0 && weekly[faculty.ID] > faculty.MaxHoursPerWeek {
			conflicts = append(conflicts, models.Conflict{
				Type:        models.ConflictFacultyOverload,
				Description: fmt.Sprintf("Faculty %s exceeds %d classes per week", faculty.Name, faculty.MaxHoursPerWeek),
				Entries:     []string{entry.ID},
			})
		}
	}
	return conflicts
}
