package models

// RoomType classifies classrooms.
type RoomType string

const (
	RoomTypeLecture  RoomType = "lecture"
	RoomTypeLab      RoomType = "lab"
	RoomTypeTutorial RoomType = "tutorial"
)

// Classroom is a physical room that can host a session.
type Classroom struct {
	ID        string   `json:"id" validate:"required"`
	Name      string   `json:"name"`
	Capacity  int      `json:"capacity" validate:"gte=0"`
	Type      RoomType `json:"type" validate:"omitempty,oneof=lecture lab tutorial"`
	Equipment []string `json:"equipment"`
}

// Fits reports whether the room seats the whole batch.
func (c *Classroom) Fits(batch *Batch) bool {
	if c == nil || batch == nil {
		return false
	}
	return c.Capacity >= batch.Strength
}
