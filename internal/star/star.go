package star

import (
	"time"

	"github.com/google/uuid"
)

// Well-known action names issued by the lifecycle hooks.
const (
	ActionRegistration = "Registration Reward"
	ActionDailyLogin   = "Daily Login Reward"
)

// Default amounts for the lifecycle actions.
const (
	AmountRegistration   = 10
	AmountDailyLogin     = 50
	AmountCoursePart     = 200
	AmountGameCompletion = 50
)

type Action struct {
	ID     int    `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Amount int    `json:"amount" db:"amount"`
}

type HistoryEntry struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	ActionID   int       `json:"action_id" db:"action_id"`
	ActionName string    `json:"action_name" db:"action_name"`
	Amount     int       `json:"amount" db:"amount"`
	EarnedAt   time.Time `json:"earned_at" db:"earned_at"`
}

type Progression struct {
	UserID uuid.UUID `json:"user_id" db:"user_id"`
	Stars  int       `json:"stars" db:"stars"`
	Level  int       `json:"level" db:"level"`
}

type AwardResult struct {
	Name    string `json:"name"`
	Amount  int    `json:"amount"`
	Awarded bool   `json:"awarded"`
	Stars   int    `json:"stars"`
	Level   int    `json:"level"`
}
