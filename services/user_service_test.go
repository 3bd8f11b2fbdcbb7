package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"soulhavenAPI/internal/star"
	"soulhavenAPI/internal/user"
)

func TestCreateUserValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db, NewStarService(db))

	_, err := svc.CreateUser(context.Background(), &user.CreateUserRequest{Email: "no-username@example.com"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing username: expected ErrInvalidInput, got %v", err)
	}

	_, err = svc.CreateUser(context.Background(), &user.CreateUserRequest{Username: "no-email"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing email: expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db, NewStarService(db))
	userID := createTestUser(t, db)
	ctx := context.Background()

	before, err := svc.GetUserByID(ctx, userID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}

	updated, err := svc.UpdateProfile(ctx, userID, &user.UpdateProfileRequest{Nickname: "sunny"})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if updated.Nickname != "sunny" {
		t.Errorf("nickname = %q, want %q", updated.Nickname, "sunny")
	}
	if updated.Username != before.Username {
		t.Errorf("empty request field changed username: %q -> %q", before.Username, updated.Username)
	}

	_, err = svc.UpdateProfile(ctx, uuid.New(), &user.UpdateProfileRequest{Nickname: "ghost"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user: expected ErrNotFound, got %v", err)
	}
}

// A failed award must not leave the day's login marker behind, or the
// reward would be unrecoverable by retrying.
func TestDailyLoginRetryAfterFailedAward(t *testing.T) {
	db := setupTestDB(t)
	stars := NewStarService(db)
	svc := NewUserService(db, stars)
	userID := createTestUser(t, db)
	ctx := context.Background()

	// Removing the progression row makes the award step fail.
	if _, err := db.Exec(ctx, `DELETE FROM user_progression WHERE user_id = $1`, userID); err != nil {
		t.Fatalf("failed to remove progression row: %v", err)
	}

	if _, err := svc.RecordDailyLogin(ctx, userID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from failed award, got %v", err)
	}

	var markers int
	err := db.QueryRow(ctx, `SELECT COUNT(*) FROM user_logins WHERE user_id = $1`, userID).Scan(&markers)
	if err != nil {
		t.Fatalf("failed to count login markers: %v", err)
	}
	if markers != 0 {
		t.Fatalf("login marker survived the failed award; retry would be a no-op")
	}

	if _, err := db.Exec(ctx, `
	INSERT INTO user_progression (user_id, stars, level) VALUES ($1, 10, 1)
	`, userID); err != nil {
		t.Fatalf("failed to restore progression row: %v", err)
	}

	res, err := svc.RecordDailyLogin(ctx, userID)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if res == nil || !res.Awarded {
		t.Fatal("retry after the transient failure should be rewarded")
	}
}

func TestDailyLoginOncePerDay(t *testing.T) {
	db := setupTestDB(t)
	stars := NewStarService(db)
	svc := NewUserService(db, stars)
	userID := createTestUser(t, db)
	ctx := context.Background()

	res, err := svc.RecordDailyLogin(ctx, userID)
	if err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	if res == nil || !res.Awarded {
		t.Fatal("first login of the day should be rewarded")
	}
	if res.Amount != star.AmountDailyLogin {
		t.Errorf("reward amount = %d, want %d", res.Amount, star.AmountDailyLogin)
	}

	// Same calendar day: no second reward.
	res, err = svc.RecordDailyLogin(ctx, userID)
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}
	if res != nil {
		t.Errorf("second login the same day should not be rewarded, got %+v", res)
	}

	p, err := stars.GetProgression(ctx, userID)
	if err != nil {
		t.Fatalf("GetProgression failed: %v", err)
	}
	want := star.AmountRegistration + star.AmountDailyLogin
	if p.Stars != want {
		t.Errorf("stars = %d, want %d", p.Stars, want)
	}
}
