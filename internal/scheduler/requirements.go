package scheduler

import (
	"github.com/noah-isme/timetable-ga-api/internal/models"
)

// DefaultSessionMinutes is the length of one teaching session.
const DefaultSessionMinutes = 60

// MaxHoursPerWeek is the number of hours in a week. Larger weekly loads are
// treated as this value.
const MaxHoursPerWeek = 7 * 24

// Requirement is one (subject, batch) pairing that needs weekly sessions.
type Requirement struct {
	Subject        *models.Subject
	Batch          *models.Batch
	SessionsNeeded int
}

// ExpandRequirements flattens every batch's subject list into requirements.
// Subject ids that do not resolve are skipped.
func ExpandRequirements(batches []models.Batch, subjects []models.Subject, sessionMinutes int) []Requirement {
	lookup := make(map[string]*models.Subject, len(subjects))
	for i := range subjects {
		if _, dup := lookup[subjects[i].ID]; !dup {
			lookup[subjects[i].ID] = &subjects[i]
		}
	}
	ptrs := make([]*models.Batch, len(batches))
	for i := range batches {
		ptrs[i] = &batches[i]
	}
	return expand(ptrs, lookup, sessionMinutes)
}

// Requirements expands the catalog's batches.
func (c *Catalog) Requirements(sessionMinutes int) []Requirement {
	ptrs := make([]*models.Batch, len(c.batches))
	for i := range c.batches {
		ptrs[i] = &c.batches[i]
	}
	return expand(ptrs, c.subjectByID, sessionMinutes)
}

func expand(batches []*models.Batch, subjects map[string]*models.Subject, sessionMinutes int) []Requirement {
	if sessionMinutes <= 0 {
		sessionMinutes = DefaultSessionMinutes
	}
	var reqs []Requirement
	for _, batch := range batches {
		for _, subjectID := range batch.Subjects {
			subject, ok := subjects[subjectID]
			if !ok {
				continue
			}
			reqs = append(reqs, Requirement{
				Subject:        subject,
				Batch:          batch,
				SessionsNeeded: sessionsNeeded(subject.HoursPerWeek, sessionMinutes),
			})
		}
	}
	return reqs
}

// sessionsNeeded is ceil(hours*60 / sessionMinutes) in integer arithmetic,
// with hours saturated at MaxHoursPerWeek.
func sessionsNeeded(hoursPerWeek, sessionMinutes int) int {
	if hoursPerWeek <= 0 {
		return 0
	}
	if sessionMinutes <= 0 {
		sessionMinutes = DefaultSessionMinutes
	}
	minutes := min(hoursPerWeek, MaxHoursPerWeek) * 60
	return (minutes + sessionMinutes - 1) / sessionMinutes
}

// EntriesPlanned reports how many entries the requirement contributes to
// one individual under the given session policy.
func (r Requirement) EntriesPlanned(expandSessions bool) int {
	if !expandSessions {
		return 1
	}
	return r.SessionsNeeded
}
