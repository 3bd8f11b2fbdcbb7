package course

import (
	"time"

	"github.com/google/uuid"
)

type Part string

const (
	PartTheory   Part = "theory"
	PartPractice Part = "practice"
	PartVideo    Part = "video"
	PartTest     Part = "test"
)

func (p Part) Valid() bool {
	switch p {
	case PartTheory, PartPractice, PartVideo, PartTest:
		return true
	}
	return false
}

// Title is the capitalized form used in star action names,
// e.g. "Course Part Completion: Mindful Breathing - Test".
func (p Part) Title() string {
	switch p {
	case PartTheory:
		return "Theory"
	case PartPractice:
		return "Practice"
	case PartVideo:
		return "Video"
	case PartTest:
		return "Test"
	}
	return string(p)
}

type Course struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
}

type Progress struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	CourseID    uuid.UUID `json:"course_id" db:"course_id"`
	Part        Part      `json:"part" db:"part"`
	Score       *int      `json:"score,omitempty" db:"score"`
	CompletedAt time.Time `json:"completed_at" db:"completed_at"`
}

// ProgressResponse mirrors the course page: which parts are done and
// whether the test is reachable (all three learning parts completed).
type ProgressResponse struct {
	CourseID       uuid.UUID `json:"course_id"`
	CompletedParts []Part    `json:"completed_parts"`
	CanAccessTest  bool      `json:"can_access_test"`
}
