package scheduler

import (
	"math/rand"

	"github.com/noah-isme/timetable-ga-api/internal/models"
)

// scriptedRand replays Intn results and falls back to a seeded source once the
// script runs out.
type scriptedRand struct {
	ints     []int
	floats   []float64
	fallback *rand.Rand
}

func newScriptedRand(ints ...int) *scriptedRand {
	return &scriptedRand{ints: ints, fallback: rand.New(rand.NewSource(1))}
}

func (r *scriptedRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return r.fallback.Intn(n)
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

func (r *scriptedRand) Int63() int64 { return r.fallback.Int63() }

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return r.fallback.Float64()
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *scriptedRand) Read(p []byte) (int, error) { return r.fallback.Read(p) }

func slotAt(day models.Weekday, start, end string) models.TimeSlot {
	return models.TimeSlot{ID: string(day) + "-" + start, Day: day, StartTime: start, EndTime: end, Duration: 60}
}

// fullWeek is an availability window list covering every catalog slot.
func fullWeek() []models.TimeSlot {
	windows := make([]models.TimeSlot, 0, len(models.WorkingDays))
	for _, day := range models.WorkingDays {
		windows = append(windows, slotAt(day, "08:00", "17:00"))
	}
	return windows
}

func facultyFixture(id string, subjects ...string) *models.Faculty {
	return &models.Faculty{ID: id, Name: "Faculty " + id, AvailableSlots: fullWeek(), Subjects: subjects}
}

func roomFixture(id string, capacity int) *models.Classroom {
	return &models.Classroom{ID: id, Name: "Room " + id, Capacity: capacity, Type: models.RoomTypeLecture}
}

func batchFixture(id string, strength int, subjects ...string) *models.Batch {
	return &models.Batch{ID: id, Name: "Batch " + id, Strength: strength, Subjects: subjects}
}

func subjectFixture(id string, hours int) *models.Subject {
	return &models.Subject{ID: id, Name: "Subject " + id, Code: "CS-" + id, HoursPerWeek: hours, Type: models.ProgramLevelUG}
}

func entryFixture(id string, f *models.Faculty, c *models.Classroom, b *models.Batch, ts models.TimeSlot) models.TimetableEntry {
	slot := ts
	return models.TimetableEntry{
		ID:        id,
		Subject:   subjectFixture("s1", 3),
		Faculty:   f,
		Classroom: c,
		Batch:     b,
		TimeSlot:  &slot,
	}
}

// problemFixture describes a small instance that one faculty can cover alone.
func problemFixture(batches ...models.Batch) Problem {
	return Problem{
		Subjects:   []models.Subject{*subjectFixture("s1", 3)},
		Faculties:  []models.Faculty{*facultyFixture("f1", "s1")},
		Classrooms: []models.Classroom{*roomFixture("r1", 40), *roomFixture("r2", 40)},
		Batches:    batches,
	}
}
