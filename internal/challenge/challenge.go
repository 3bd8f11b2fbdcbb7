package challenge

import (
	"time"

	"github.com/google/uuid"

	"soulhavenAPI/internal/achievement"
)

type Kind string

const (
	KindCountCourses Kind = "count_courses"
	KindCountGames   Kind = "count_games"
	KindManual       Kind = "manual"
)

func (k Kind) Valid() bool {
	switch k {
	case KindCountCourses, KindCountGames, KindManual:
		return true
	}
	return false
}

type Challenge struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Kind        Kind      `json:"kind" db:"kind"`
	TargetValue int       `json:"target_value" db:"target_value"`
	// ExactTitle narrows a target==1 challenge to one specific course or
	// game title. Nil means the distinct-count rule applies.
	ExactTitle *string   `json:"exact_title,omitempty" db:"exact_title"`
	StarReward int       `json:"star_reward" db:"star_reward"`
	Active     bool      `json:"active" db:"active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type UserChallenge struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	ChallengeID uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	Progress    int        `json:"progress" db:"progress"`
	Completed   bool       `json:"completed" db:"completed"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
}

type ChallengeWithProgress struct {
	Challenge
	Progress    int        `json:"progress"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Fact is the event payload an evaluation runs against. Exactly one field
// is meaningful per kind: Title for count_courses/count_games exact-title
// challenges, ManualComplete for manual ones. Distinct-count challenges
// ignore the fact and recompute from persisted history.
type Fact struct {
	Title          string `json:"title,omitempty"`
	ManualComplete bool   `json:"manual_complete,omitempty"`
}

type EvalResult struct {
	ChallengeID    uuid.UUID              `json:"challenge_id"`
	Progress       int                    `json:"progress"`
	Completed      bool                   `json:"completed"`
	NewlyCompleted bool                   `json:"newly_completed"`
	Unlocked       []achievement.Unlocked `json:"achievements"`
}
