package services

import (
	"context"
	"errors"
	"testing"

	"soulhavenAPI/internal/game"
	"soulhavenAPI/internal/star"
)

func TestCompleteGameUnknownType(t *testing.T) {
	db := setupTestDB(t)
	stars := NewStarService(db)
	achievements := NewAchievementService(db)
	challenges := NewChallengeService(db, stars, achievements)
	svc := NewGameService(db, stars, achievements, challenges)
	userID := createTestUser(t, db)

	_, err := svc.CompleteGame(context.Background(), userID, game.Type("chess"))
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCompleteGameRewardsEveryPlay(t *testing.T) {
	db := setupTestDB(t)
	stars := NewStarService(db)
	achievements := NewAchievementService(db)
	challenges := NewChallengeService(db, stars, achievements)
	svc := NewGameService(db, stars, achievements, challenges)
	userID := createTestUser(t, db)
	ctx := context.Background()

	t.Cleanup(func() {
		db.Exec(ctx, `DELETE FROM completed_games WHERE user_id = $1`, userID)
	})

	// First play: flat reward plus the starter achievement.
	res, err := svc.CompleteGame(ctx, userID, game.TypePuzzles)
	if err != nil {
		t.Fatalf("first play failed: %v", err)
	}
	starter := game.StarterAchievements[game.TypePuzzles]
	found := false
	for _, a := range res.Unlocked {
		if a.Name == starter.Name {
			found = true
		}
	}
	if !found {
		t.Errorf("first play should unlock %q, got %+v", starter.Name, res.Unlocked)
	}

	// Second play: reward again, no starter achievement.
	res, err = svc.CompleteGame(ctx, userID, game.TypePuzzles)
	if err != nil {
		t.Fatalf("second play failed: %v", err)
	}
	for _, a := range res.Unlocked {
		if a.Name == starter.Name {
			t.Errorf("starter achievement unlocked twice")
		}
	}

	p, err := stars.GetProgression(ctx, userID)
	if err != nil {
		t.Fatalf("GetProgression failed: %v", err)
	}
	want := star.AmountRegistration + 2*star.AmountGameCompletion
	if p.Stars != want {
		t.Errorf("stars = %d, want %d (every play must earn the flat reward)", p.Stars, want)
	}

	history, err := stars.GetStarHistory(ctx, userID)
	if err != nil {
		t.Fatalf("GetStarHistory failed: %v", err)
	}
	var plays int
	for _, h := range history {
		if h.ActionName == "Game Completion: Puzzles" {
			plays++
		}
	}
	if plays != 2 {
		t.Errorf("history has %d game entries, want 2", plays)
	}
}
