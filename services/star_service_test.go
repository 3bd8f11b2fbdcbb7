package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"soulhavenAPI/internal/star"
)

func TestRegistrationScenario(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStarService(db)
	userID := createTestUser(t, db)
	ctx := context.Background()

	// Creation already issued the registration reward.
	p, err := svc.GetProgression(ctx, userID)
	if err != nil {
		t.Fatalf("GetProgression failed: %v", err)
	}
	if p.Stars != star.AmountRegistration {
		t.Errorf("stars = %d, want %d", p.Stars, star.AmountRegistration)
	}
	if p.Level != 1 {
		t.Errorf("level = %d, want 1", p.Level)
	}

	history, err := svc.GetStarHistory(ctx, userID)
	if err != nil {
		t.Fatalf("GetStarHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
	if history[0].ActionName != star.ActionRegistration {
		t.Errorf("action = %q, want %q", history[0].ActionName, star.ActionRegistration)
	}
}

func TestAwardRedefinesActionAmount(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStarService(db)
	userID := createTestUser(t, db)
	ctx := context.Background()

	name := "Test Action " + uuid.New().String()[:8]

	first := 500
	res, err := svc.Award(ctx, userID, name, &first)
	if err != nil {
		t.Fatalf("first award failed: %v", err)
	}
	if res.Amount != 500 {
		t.Errorf("amount applied = %d, want 500", res.Amount)
	}

	// A later call with a different amount redefines the action for all
	// future awards.
	second := 100
	res, err = svc.Award(ctx, userID, name, &second)
	if err != nil {
		t.Fatalf("second award failed: %v", err)
	}
	if res.Amount != 100 {
		t.Errorf("amount applied = %d, want 100", res.Amount)
	}

	// Omitting the amount uses the stored (redefined) value.
	res, err = svc.Award(ctx, userID, name, nil)
	if err != nil {
		t.Fatalf("third award failed: %v", err)
	}
	if res.Amount != 100 {
		t.Errorf("amount applied = %d, want stored 100", res.Amount)
	}

	want := star.AmountRegistration + 500 + 100 + 100
	if res.Stars != want {
		t.Errorf("stars = %d, want %d", res.Stars, want)
	}
}

func TestLevelIsHighWaterMark(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStarService(db)
	userID := createTestUser(t, db)
	ctx := context.Background()

	big := 2000
	res, err := svc.Award(ctx, userID, "Big Reward "+uuid.New().String()[:8], &big)
	if err != nil {
		t.Fatalf("award failed: %v", err)
	}
	if res.Level != 3 {
		t.Errorf("level = %d, want 3", res.Level)
	}

	// Further small awards never pull the level back down.
	small := 1
	res, err = svc.Award(ctx, userID, "Small Reward "+uuid.New().String()[:8], &small)
	if err != nil {
		t.Fatalf("award failed: %v", err)
	}
	if res.Level != 3 {
		t.Errorf("level = %d after small award, want 3", res.Level)
	}
}

func TestConcurrentAwardsAreNotLost(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStarService(db)
	userID := createTestUser(t, db)

	const workers = 8
	amount := 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Award(context.Background(), userID, "Concurrent Reward", &amount); err != nil {
				t.Errorf("award failed: %v", err)
			}
		}()
	}
	wg.Wait()

	p, err := svc.GetProgression(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetProgression failed: %v", err)
	}
	want := star.AmountRegistration + workers*amount
	if p.Stars != want {
		t.Errorf("stars = %d, want %d (lost update?)", p.Stars, want)
	}
}

func TestAwardUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStarService(db)

	amount := 10
	_, err := svc.Award(context.Background(), uuid.New(), "Orphan Award", &amount)
	if err == nil {
		t.Fatal("expected error for user without progression record")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
