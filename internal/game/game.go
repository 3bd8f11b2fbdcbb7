package game

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypePuzzles    Type = "puzzles"
	TypeMandalas   Type = "mandalas"
	TypePopBubbles Type = "pop_bubbles"
	TypeFirefly    Type = "firefly"
	TypePhrases    Type = "phrases"
)

func (t Type) Valid() bool {
	switch t {
	case TypePuzzles, TypeMandalas, TypePopBubbles, TypeFirefly, TypePhrases:
		return true
	}
	return false
}

// Title is the display form used in star action names,
// e.g. "Game Completion: Puzzles".
func (t Type) Title() string {
	switch t {
	case TypePuzzles:
		return "Puzzles"
	case TypeMandalas:
		return "Mandalas"
	case TypePopBubbles:
		return "Pop_Bubbles"
	case TypeFirefly:
		return "Firefly"
	case TypePhrases:
		return "Phrases"
	}
	return string(t)
}

type CompletedGame struct {
	ID       uuid.UUID `json:"id" db:"id"`
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	GameType Type      `json:"game_type" db:"game_type"`
	PlayedAt time.Time `json:"played_at" db:"played_at"`
}

// StarterAchievement describes the one-time achievement granted the first
// time a user plays a given game type.
type StarterAchievement struct {
	Name        string
	Description string
	Image       string
}

var StarterAchievements = map[Type]StarterAchievement{
	TypePuzzles: {
		Name:        "Puzzle Starter",
		Description: "You played a puzzle game for the first time!",
		Image:       "achievements/puzzle_starter.png",
	},
	TypeMandalas: {
		Name:        "Mandala Beginner",
		Description: "You colored your first mandala!",
		Image:       "achievements/mandala_beginner.png",
	},
	TypePopBubbles: {
		Name:        "Bubble Popper",
		Description: "You popped your first bubble!",
		Image:       "achievements/bubble_popper.png",
	},
	TypeFirefly: {
		Name:        "Rhythm Rider",
		Description: "You chased your first firefly!",
		Image:       "achievements/rhythm_rider.png",
	},
	TypePhrases: {
		Name:        "Phrase Crafter",
		Description: "You built your first phrase!",
		Image:       "achievements/phrase_crafter.png",
	},
}
