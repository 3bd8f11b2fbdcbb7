package services

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"soulhavenAPI/internal/challenge"
	"soulhavenAPI/internal/user"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if err := godotenv.Load("../.env"); err != nil {
		_ = godotenv.Load()
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set; skipping database-backed test")
	}

	db, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

// createTestUser provisions a fresh user through the real creation path,
// so every test user starts with the registration reward already applied.
func createTestUser(t *testing.T, db *pgxpool.Pool) uuid.UUID {
	t.Helper()

	svc := NewUserService(db, NewStarService(db))
	suffix := uuid.New().String()[:8]
	u, err := svc.CreateUser(context.Background(), &user.CreateUserRequest{
		Email:    fmt.Sprintf("test-%s@example.com", suffix),
		Username: "test-" + suffix,
	})
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	userID := uuid.MustParse(u.ID)
	t.Cleanup(func() {
		db.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, userID)
	})
	return userID
}

func createTestChallenge(t *testing.T, db *pgxpool.Pool, kind challenge.Kind, target, reward int, exactTitle *string, active bool) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(context.Background(), `
	INSERT INTO challenges (id, name, description, kind, target_value, exact_title, star_reward, active)
	VALUES ($1, $2, '', $3, $4, $5, $6, $7)
	`, id, "test challenge "+id.String()[:8], kind, target, exactTitle, reward, active)
	if err != nil {
		t.Fatalf("failed to create test challenge: %v", err)
	}

	t.Cleanup(func() {
		db.Exec(context.Background(), `DELETE FROM challenges WHERE id = $1`, id)
	})
	return id
}

func createTestCourse(t *testing.T, db *pgxpool.Pool, title string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(context.Background(), `
	INSERT INTO courses (id, title, description) VALUES ($1, $2, '')
	`, id, title)
	if err != nil {
		t.Fatalf("failed to create test course: %v", err)
	}

	t.Cleanup(func() {
		db.Exec(context.Background(), `DELETE FROM courses WHERE id = $1`, id)
	})
	return id
}

// insertCompletedChallenge backdates a completion, bypassing the engine.
// Used to set up consistency-window history.
func insertCompletedChallenge(t *testing.T, db *pgxpool.Pool, userID, challengeID uuid.UUID, completedAt time.Time) {
	t.Helper()

	_, err := db.Exec(context.Background(), `
	INSERT INTO user_challenges (id, user_id, challenge_id, progress, completed, completed_at)
	VALUES ($1, $2, $3, 1, true, $4)
	`, uuid.New(), userID, challengeID, completedAt)
	if err != nil {
		t.Fatalf("failed to insert completed challenge: %v", err)
	}
}

func hasAchievement(t *testing.T, db *pgxpool.Pool, userID uuid.UUID, name string) bool {
	t.Helper()

	var count int
	err := db.QueryRow(context.Background(), `
	SELECT COUNT(*)
	FROM user_achievements ua
	JOIN achievements a ON a.id = ua.achievement_id
	WHERE ua.user_id = $1 AND a.name = $2
	`, userID, name).Scan(&count)
	if err != nil {
		t.Fatalf("failed to check achievement: %v", err)
	}
	return count == 1
}
