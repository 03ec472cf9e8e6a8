package scheduler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-ga-api/internal/models"
)

func individualWithEntries(id string, n int) *Individual {
	f := facultyFixture("f1", "s1")
	room := roomFixture("r1", 40)
	batch := batchFixture("b1", 30)
	slots := DefaultTimeSlots()
	entries := make([]models.TimetableEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, entryFixture(fmt.Sprintf("%s-e%d", id, i), f, room, batch, slots[i%len(slots)]))
	}
	return NewIndividual(id, entries)
}

func TestTournamentSelectPicksFittest(t *testing.T) {
	pop := []*Individual{
		{ID: "a", Fitness: 900},
		{ID: "b", Fitness: 1010},
		{ID: "c", Fitness: 950},
	}

	winner := TournamentSelect(pop, 3, newScriptedRand(0, 2, 1))
	assert.Equal(t, "b", winner.ID)

	winner = TournamentSelect(pop, 2, newScriptedRand(0, 2))
	assert.Equal(t, "c", winner.ID)
}

func TestTournamentSelectFirstDrawWinsTies(t *testing.T) {
	pop := []*Individual{
		{ID: "a", Fitness: 1000},
		{ID: "b", Fitness: 1000},
	}

	assert.Same(t, pop[1], TournamentSelect(pop, 3, newScriptedRand(1, 0, 0)))
	assert.Same(t, pop[0], TournamentSelect(pop, 3, newScriptedRand(0, 1, 1)))
}

func TestCrossoverLengthsAreComplementary(t *testing.T) {
	p1 := individualWithEntries("p1", 5)
	p2 := individualWithEntries("p2", 3)
	rng := NewRand(11)

	for i := 0; i < 30; i++ {
		a, b := Crossover(p1, p2, rng)
		assert.Equal(t, len(p1.Entries)+len(p2.Entries), len(a.Entries)+len(b.Entries))
		assert.Len(t, a.Entries, 3)
		assert.Len(t, b.Entries, 5)
	}
}

func TestCrossoverSwapsTailsWithFreshEntries(t *testing.T) {
	p1 := individualWithEntries("p1", 4)
	p2 := individualWithEntries("p2", 4)
	before1 := append([]models.TimetableEntry(nil), p1.Entries...)
	before2 := append([]models.TimetableEntry(nil), p2.Entries...)

	a, b := Crossover(p1, p2, newScriptedRand(2))

	for i := 0; i < 4; i++ {
		fromA, fromB := p1, p2
		if i >= 2 {
			fromA, fromB = p2, p1
		}
		assert.Same(t, fromA.Entries[i].TimeSlot, a.Entries[i].TimeSlot)
		assert.Same(t, fromB.Entries[i].TimeSlot, b.Entries[i].TimeSlot)
		assert.NotEqual(t, fromA.Entries[i].ID, a.Entries[i].ID)
		assert.NotEqual(t, fromB.Entries[i].ID, b.Entries[i].ID)
	}
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, before1, p1.Entries)
	assert.Equal(t, before2, p2.Entries)

	a.Entries[0].TimeSlot = nil
	assert.NotNil(t, p1.Entries[0].TimeSlot)
}

func TestCrossoverWithEmptyParent(t *testing.T) {
	empty := NewIndividual("empty", nil)
	full := individualWithEntries("full", 3)

	a, b := Crossover(empty, full, NewRand(5))
	assert.Len(t, a.Entries, 3)
	assert.Empty(t, b.Entries)
}

func TestCloneRegeneratesIdentity(t *testing.T) {
	original := individualWithEntries("orig", 3)
	original.Fitness = 987
	original.Conflicts = []models.Conflict{{Type: models.ConflictBatchClash}}

	clone := original.Clone(NewRand(9))
	assert.NotEqual(t, original.ID, clone.ID)
	assert.Equal(t, original.Fitness, clone.Fitness)
	assert.Empty(t, clone.Conflicts)
	require.Len(t, clone.Entries, 3)
	for i := range clone.Entries {
		assert.NotEqual(t, original.Entries[i].ID, clone.Entries[i].ID)
		assert.Same(t, original.Entries[i].Faculty, clone.Entries[i].Faculty)
	}
}

func TestMutateTouchesOneFieldOfOneEntry(t *testing.T) {
	problem := problemFixture(*batchFixture("b1", 30, "s1"), *batchFixture("b2", 30, "s1"))
	problem.Faculties = append(problem.Faculties, *facultyFixture("f2", "s1"), *facultyFixture("f3", "s1"))
	problem.Classrooms = append(problem.Classrooms, *roomFixture("r3", 40))
	cat := NewCatalog(problem)
	rng := NewRand(21)

	for round := 0; round < 200; round++ {
		ind := cat.BuildIndividual(cat.Requirements(60), true, rng)
		before := append([]models.TimetableEntry(nil), ind.Entries...)

		index, kind, changed := Mutate(ind, cat, rng)
		require.True(t, changed)

		for i := range ind.Entries {
			after := ind.Entries[i]
			prev := before[i]
			assert.Equal(t, prev.ID, after.ID)
			assert.Same(t, prev.Subject, after.Subject)
			assert.Same(t, prev.Batch, after.Batch)
			if i != index {
				assert.Equal(t, prev, after)
				continue
			}
			switch kind {
			case MutateFaculty:
				assert.Same(t, prev.Classroom, after.Classroom)
				assert.Same(t, prev.TimeSlot, after.TimeSlot)
			case MutateClassroom:
				assert.Same(t, prev.Faculty, after.Faculty)
				assert.Same(t, prev.TimeSlot, after.TimeSlot)
			case MutateTimeSlot:
				assert.Same(t, prev.Faculty, after.Faculty)
				assert.Same(t, prev.Classroom, after.Classroom)
			}
		}
	}
}

func TestMutateSkipsSingleCandidateFields(t *testing.T) {
	problem := problemFixture(*batchFixture("b1", 30, "s1"))
	problem.Classrooms = problem.Classrooms[:1]
	cat := NewCatalog(problem)
	ind := cat.BuildIndividual(cat.Requirements(60), false, NewRand(2))

	_, kind, changed := Mutate(ind, cat, newScriptedRand(0, int(MutateFaculty)))
	assert.Equal(t, MutateFaculty, kind)
	assert.False(t, changed)

	_, kind, changed = Mutate(ind, cat, newScriptedRand(0, int(MutateClassroom)))
	assert.Equal(t, MutateClassroom, kind)
	assert.False(t, changed)

	_, kind, changed = Mutate(ind, cat, newScriptedRand(0, int(MutateTimeSlot)))
	assert.Equal(t, MutateTimeSlot, kind)
	assert.True(t, changed)
}

func TestMutateEmptyIndividual(t *testing.T) {
	index, _, changed := Mutate(NewIndividual("empty", nil), NewCatalog(Problem{}), NewRand(1))
	assert.Equal(t, -1, index)
	assert.False(t, changed)
}
