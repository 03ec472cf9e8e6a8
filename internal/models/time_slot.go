package models

import "time"

// Weekday names one of the six working days.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
)

// WorkingDays lists the working week in order.
var WorkingDays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// DayIndex returns the zero-based position of the day in the working week, or -1.
func DayIndex(day Weekday) int {
	for i, d := range WorkingDays {
		if d == day {
			return i
		}
	}
	return -1
}

const clockLayout = "15:04"

// TimeSlot is one bookable period of the week.
type TimeSlot struct {
	ID        string  `json:"id"`
	Day       Weekday `json:"day" validate:"required,oneof=Monday Tuesday Wednesday Thursday Friday Saturday"`
	StartTime string  `json:"startTime" validate:"required"`
	EndTime   string  `json:"endTime" validate:"required"`
	Duration  int     `json:"duration"`
}

// Bounds returns the start and end of the slot in minutes since midnight.
func (t *TimeSlot) Bounds() (start, end int, ok bool) {
	if t == nil {
		return 0, 0, false
	}
	s, err := ParseClock(t.StartTime)
	if err != nil {
		return 0, 0, false
	}
	e, err := ParseClock(t.EndTime)
	if err != nil {
		return 0, 0, false
	}
	return s, e, true
}

// ClashKey identifies the (day, start) pair two sessions collide on.
func (t *TimeSlot) ClashKey() string {
	return string(t.Day) + "-" + t.StartTime
}

// Overlaps reports whether two slots on the same day intersect.
func (t *TimeSlot) Overlaps(other *TimeSlot) bool {
	if t == nil || other == nil || t.Day != other.Day {
		return false
	}
	s1, e1, ok1 := t.Bounds()
	s2, e2, ok2 := other.Bounds()
	if !ok1 || !ok2 {
		return false
	}
	return !(e1 <= s2 || e2 <= s1)
}

// ParseClock converts an HH:MM string to minutes since midnight.
func ParseClock(raw string) (int, error) {
	parsed, err := time.Parse(clockLayout, raw)
	if err != nil {
		return 0, err
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}
