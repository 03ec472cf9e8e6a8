package models

// Faculty represents an instructor who can be assigned to timetable entries.
// MaxHoursPerDay and MaxHoursPerWeek are only enforced when the caller opts in
// through TimetableConstraints.EnforceFacultyCaps.
type Faculty struct {
	ID              string     `json:"id" validate:"required"`
	Name            string     `json:"name"`
	Department      string     `json:"department"`
	AvailableSlots  []TimeSlot `json:"availableSlots" validate:"dive"`
	Subjects        []string   `json:"subjects"`
	MaxHoursPerDay  int        `json:"maxHoursPerDay" validate:"gte=0"`
	MaxHoursPerWeek int        `json:"maxHoursPerWeek" validate:"gte=0"`
}

// Teaches reports whether the faculty is qualified for the subject.
func (f *Faculty) Teaches(subjectID string) bool {
	if f == nil {
		return false
	}
	for _, id := range f.Subjects {
		if id == subjectID {
			return true
		}
	}
	return false
}

// AvailableFor reports whether one availability window on the slot's day
// fully contains the slot.
func (f *Faculty) AvailableFor(slot *TimeSlot) bool {
	if f == nil || slot == nil {
		return false
	}
	start, end, ok := slot.Bounds()
	if !ok {
		return false
	}
	for i := range f.AvailableSlots {
		window := &f.AvailableSlots[i]
		if window.Day != slot.Day {
			continue
		}
		ws, we, valid := window.Bounds()
		if !valid {
			continue
		}
		if ws <= start && we >= end {
			return true
		}
	}
	return false
}
