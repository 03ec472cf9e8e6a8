package scheduler

import (
	"strconv"

	"github.com/noah-isme/timetable-ga-api/internal/models"
)

// dailyPeriods are the six teaching periods of every working day. The gap
// between 13:30 and 14:30 is lunch; 11:00-11:30 is the morning break.
var dailyPeriods = [][2]string{
	{"09:00", "10:00"},
	{"10:00", "11:00"},
	{"11:30", "12:30"},
	{"12:30", "13:30"},
	{"14:30", "15:30"},
	{"15:30", "16:30"},
}

// SlotMinutes is the length of every catalog slot.
const SlotMinutes = 60

// DefaultTimeSlots returns the fixed 36-slot week used as the search space for
// time assignment. A fresh slice is returned on every call.
func DefaultTimeSlots() []models.TimeSlot {
	slots := make([]models.TimeSlot, 0, len(models.WorkingDays)*len(dailyPeriods))
	for _, day := range models.WorkingDays {
		for _, period := range dailyPeriods {
			slots = append(slots, models.TimeSlot{
				ID:        strconv.Itoa(len(slots) + 1),
				Day:       day,
				StartTime: period[0],
				EndTime:   period[1],
				Duration:  SlotMinutes,
			})
		}
	}
	return slots
}
