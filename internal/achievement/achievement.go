package achievement

import (
	"time"

	"github.com/google/uuid"
)

// Names of the achievements driven by the challenge cascade.
const (
	NameFirstChallenge      = "First Challenge Completed"
	NameChallengeStreak     = "Challenge Streak"
	NameChallengeMaster     = "Challenge Master"
	NameWeeklyCompletionist = "Weekly Completionist"
	NameConsistency         = "Challenge Consistency"
)

type Achievement struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Image       string    `json:"image" db:"image"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type UserAchievement struct {
	ID            uuid.UUID `json:"id" db:"id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	AchievementID uuid.UUID `json:"achievement_id" db:"achievement_id"`
	AwardedAt     time.Time `json:"awarded_at" db:"awarded_at"`
}

type AchievementWithStatus struct {
	Achievement
	Unlocked  bool       `json:"unlocked"`
	AwardedAt *time.Time `json:"awarded_at,omitempty"`
}

// Unlocked is the payload surfaced to the frontend when a grant actually
// happened during the triggering request. Repeat grants are suppressed by
// the (user, achievement) constraint, so an event's unlocked list is
// one-shot by construction.
type Unlocked struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}
