package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"soulhavenAPI/internal/achievement"
)

type AchievementService struct {
	db *pgxpool.Pool
}

func NewAchievementService(db *pgxpool.Pool) *AchievementService {
	return &AchievementService{db: db}
}

// Grant unlocks an achievement for a user, creating the achievement itself
// on first use (the first writer's description and image win). Returns false
// when the user already holds it. The conditional insert on the
// (user_id, achievement_id) constraint makes concurrent duplicate grants
// collapse to a single winner.
func (s *AchievementService) Grant(ctx context.Context, userID uuid.UUID, name, description, image string) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("%w: achievement name is required", ErrInvalidInput)
	}

	var achievementID uuid.UUID
	err := s.db.QueryRow(ctx, `
	INSERT INTO achievements (id, name, description, image)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
	RETURNING id
	`, uuid.New(), name, description, image).Scan(&achievementID)
	if err != nil {
		return false, fmt.Errorf("failed to upsert achievement: %w", err)
	}

	tag, err := s.db.Exec(ctx, `
	INSERT INTO user_achievements (id, user_id, achievement_id)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, achievement_id) DO NOTHING
	`, uuid.New(), userID, achievementID)
	if err != nil {
		return false, fmt.Errorf("failed to grant achievement: %w", err)
	}

	granted := tag.RowsAffected() == 1
	if granted {
		achievementsGranted.WithLabelValues(name).Inc()
	}
	return granted, nil
}

func (s *AchievementService) ListUnlocked(ctx context.Context, userID uuid.UUID) ([]*achievement.AchievementWithStatus, error) {
	rows, err := s.db.Query(ctx, `
	SELECT a.id, a.name, a.description, a.image, a.created_at, ua.awarded_at
	FROM achievements a
	JOIN user_achievements ua ON a.id = ua.achievement_id
	WHERE ua.user_id = $1
	ORDER BY ua.awarded_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unlocked achievements: %w", err)
	}
	defer rows.Close()

	var achievements []*achievement.AchievementWithStatus
	for rows.Next() {
		ach := &achievement.AchievementWithStatus{Unlocked: true}
		err := rows.Scan(
			&ach.ID,
			&ach.Name,
			&ach.Description,
			&ach.Image,
			&ach.CreatedAt,
			&ach.AwardedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		achievements = append(achievements, ach)
	}

	return achievements, nil
}

func (s *AchievementService) GetAchievements(ctx context.Context, userID uuid.UUID) ([]*achievement.AchievementWithStatus, error) {
	rows, err := s.db.Query(ctx, `
	SELECT
		a.id,
		a.name,
		a.description,
		a.image,
		a.created_at,
		CASE WHEN ua.id IS NOT NULL THEN true ELSE false END as unlocked,
		ua.awarded_at
	FROM achievements a
	LEFT JOIN user_achievements ua ON a.id = ua.achievement_id AND ua.user_id = $1
	ORDER BY unlocked DESC, a.name ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch achievements: %w", err)
	}
	defer rows.Close()

	var achievements []*achievement.AchievementWithStatus
	for rows.Next() {
		ach := &achievement.AchievementWithStatus{}
		err := rows.Scan(
			&ach.ID,
			&ach.Name,
			&ach.Description,
			&ach.Image,
			&ach.CreatedAt,
			&ach.Unlocked,
			&ach.AwardedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		achievements = append(achievements, ach)
	}

	return achievements, nil
}

// milestone thresholds checked on every completion. The completed count
// only ever grows by one, so each exact value is crossed at most once.
var completionMilestones = map[int]achievement.Unlocked{
	1: {
		Name:        achievement.NameFirstChallenge,
		Description: "You completed your first challenge!",
		Image:       "achievements/first_challenge.png",
	},
	3: {
		Name:        achievement.NameChallengeStreak,
		Description: "You've completed 3 challenges. Keep it up!",
		Image:       "achievements/challenge_streak.png",
	},
	10: {
		Name:        achievement.NameChallengeMaster,
		Description: "You've completed 10 challenges — you're unstoppable!",
		Image:       "achievements/challenge_master.png",
	},
}

var weeklyCompletionist = achievement.Unlocked{
	Name:        achievement.NameWeeklyCompletionist,
	Description: "You've completed all challenges of the week!",
	Image:       "achievements/weekly_completionist.png",
}

var challengeConsistency = achievement.Unlocked{
	Name:        achievement.NameConsistency,
	Description: "You completed at least one challenge every day for the past 14 days!",
	Image:       "achievements/consistency_14.png",
}

const consistencyDays = 14

// Day boundaries are computed in UTC on both sides: these helpers and the
// cascade SQL must bucket timestamps into the same calendar days regardless
// of the process or database session zone.

// startOfWeek returns midnight UTC of the most recent Monday for t.
func startOfWeek(t time.Time) time.Time {
	t = t.UTC()
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	day := t.AddDate(0, 0, -daysSinceMonday)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

// consistencyWindowStart returns midnight UTC of the first day of the
// 14-day window ending on t's UTC day.
func consistencyWindowStart(t time.Time) time.Time {
	day := t.UTC().AddDate(0, 0, -(consistencyDays - 1))
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

// RunCascade re-checks every cascade condition against the user's persisted
// challenge history and attempts the matching grants. It is pure over
// stored state and safe to retry: already-granted achievements come back
// as no-ops from Grant.
func (s *AchievementService) RunCascade(ctx context.Context, userID uuid.UUID, now time.Time) ([]achievement.Unlocked, error) {
	var unlocked []achievement.Unlocked

	var totalCompleted int
	err := s.db.QueryRow(ctx, `
	SELECT COUNT(*) FROM user_challenges WHERE user_id = $1 AND completed
	`, userID).Scan(&totalCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed challenges: %w", err)
	}

	if milestone, ok := completionMilestones[totalCompleted]; ok {
		granted, err := s.Grant(ctx, userID, milestone.Name, milestone.Description, milestone.Image)
		if err != nil {
			return unlocked, err
		}
		if granted {
			unlocked = append(unlocked, milestone)
		}
	}

	// Weekly completionist: every active challenge created since the most
	// recent Monday must be completed, and there must be at least one.
	var weeklyTotal, weeklyDone int
	err = s.db.QueryRow(ctx, `
	SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE uc.completed)
	FROM challenges c
	LEFT JOIN user_challenges uc ON uc.challenge_id = c.id AND uc.user_id = $1
	WHERE c.active AND c.created_at >= $2
	`, userID, startOfWeek(now)).Scan(&weeklyTotal, &weeklyDone)
	if err != nil {
		return unlocked, fmt.Errorf("failed to count weekly challenges: %w", err)
	}
	if weeklyTotal > 0 && weeklyDone == weeklyTotal {
		granted, err := s.Grant(ctx, userID, weeklyCompletionist.Name, weeklyCompletionist.Description, weeklyCompletionist.Image)
		if err != nil {
			return unlocked, err
		}
		if granted {
			unlocked = append(unlocked, weeklyCompletionist)
		}
	}

	// 14-day consistency: a completion on each of the 14 calendar days
	// ending today. Completion timestamps cannot land in the future, so
	// counting distinct days in the window suffices.
	var distinctDays int
	err = s.db.QueryRow(ctx, `
	SELECT COUNT(DISTINCT (completed_at AT TIME ZONE 'UTC')::date)
	FROM user_challenges
	WHERE user_id = $1 AND completed AND completed_at >= $2
	`, userID, consistencyWindowStart(now)).Scan(&distinctDays)
	if err != nil {
		return unlocked, fmt.Errorf("failed to count completion days: %w", err)
	}
	if distinctDays >= consistencyDays {
		granted, err := s.Grant(ctx, userID, challengeConsistency.Name, challengeConsistency.Description, challengeConsistency.Image)
		if err != nil {
			return unlocked, err
		}
		if granted {
			unlocked = append(unlocked, challengeConsistency)
		}
	}

	if len(unlocked) > 0 {
		log.Printf("RunCascade: user %s unlocked %d achievement(s)", userID, len(unlocked))
	}
	return unlocked, nil
}
