package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"soulhavenAPI/internal/achievement"
	"soulhavenAPI/internal/challenge"
)

type ChallengeService struct {
	db           *pgxpool.Pool
	starService  *StarService
	achievements *AchievementService
}

func NewChallengeService(db *pgxpool.Pool, starService *StarService, achievements *AchievementService) *ChallengeService {
	return &ChallengeService{
		db:           db,
		starService:  starService,
		achievements: achievements,
	}
}

func (s *ChallengeService) GetChallenge(ctx context.Context, challengeID uuid.UUID) (*challenge.Challenge, error) {
	ch := &challenge.Challenge{}
	err := s.db.QueryRow(ctx, `
	SELECT id, name, description, kind, target_value, exact_title, star_reward, active, created_at
	FROM challenges
	WHERE id = $1
	`, challengeID).Scan(
		&ch.ID,
		&ch.Name,
		&ch.Description,
		&ch.Kind,
		&ch.TargetValue,
		&ch.ExactTitle,
		&ch.StarReward,
		&ch.Active,
		&ch.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: challenge %s", ErrNotFound, challengeID)
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return ch, nil
}

// Evaluate runs the progress state machine for one (user, challenge) pair.
// Completed challenges are terminal: re-evaluation returns the frozen state
// without side effects. On the transition to completed the star reward is
// applied in the same transaction, then the achievement cascade runs as a
// best-effort follow-up.
func (s *ChallengeService) Evaluate(ctx context.Context, userID, challengeID uuid.UUID, fact challenge.Fact) (*challenge.EvalResult, error) {
	ch, err := s.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, userID, ch, fact)
}

func (s *ChallengeService) evaluate(ctx context.Context, userID uuid.UUID, ch *challenge.Challenge, fact challenge.Fact) (*challenge.EvalResult, error) {
	if !ch.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown challenge kind %q", ErrInvalidInput, ch.Kind)
	}
	if ch.TargetValue <= 0 {
		return nil, fmt.Errorf("%w: challenge target must be positive", ErrInvalidInput)
	}

	// Get-or-create as a conditional insert, never read-then-write.
	_, err := s.db.Exec(ctx, `
	INSERT INTO user_challenges (id, user_id, challenge_id)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, challenge_id) DO NOTHING
	`, uuid.New(), userID, ch.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to init challenge progress: %w", err)
	}

	uc := &challenge.UserChallenge{}
	err = s.db.QueryRow(ctx, `
	SELECT progress, completed, completed_at
	FROM user_challenges
	WHERE user_id = $1 AND challenge_id = $2
	`, userID, ch.ID).Scan(&uc.Progress, &uc.Completed, &uc.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read challenge progress: %w", err)
	}

	if uc.Completed {
		return &challenge.EvalResult{
			ChallengeID: ch.ID,
			Progress:    uc.Progress,
			Completed:   true,
		}, nil
	}

	measure, err := s.measure(ctx, userID, ch, fact, uc.Progress)
	if err != nil {
		return nil, err
	}

	if measure >= ch.TargetValue {
		won, err := s.complete(ctx, userID, ch, measure)
		if err != nil {
			return nil, err
		}
		if !won {
			// A concurrent evaluation took the transition; its side
			// effects already ran.
			return &challenge.EvalResult{
				ChallengeID: ch.ID,
				Progress:    measure,
				Completed:   true,
			}, nil
		}

		challengeCompletions.WithLabelValues(string(ch.Kind)).Inc()

		unlocked, err := s.achievements.RunCascade(ctx, userID, time.Now())
		if err != nil {
			// The completion and reward are committed; the cascade is
			// idempotent and can be re-run later.
			log.Printf("Evaluate: cascade failed for user %s after completing challenge %s: %v", userID, ch.ID, err)
		}

		return &challenge.EvalResult{
			ChallengeID:    ch.ID,
			Progress:       measure,
			Completed:      true,
			NewlyCompleted: true,
			Unlocked:       unlocked,
		}, nil
	}

	// Progress is recomputed from ground truth, not accumulated. The
	// completed guard keeps a concurrent winner's frozen row untouched.
	_, err = s.db.Exec(ctx, `
	UPDATE user_challenges
	SET progress = $3
	WHERE user_id = $1 AND challenge_id = $2 AND completed = false
	`, userID, ch.ID, measure)
	if err != nil {
		return nil, fmt.Errorf("failed to update challenge progress: %w", err)
	}

	return &challenge.EvalResult{
		ChallengeID: ch.ID,
		Progress:    measure,
	}, nil
}

// measure derives the current progress value for a challenge. Exact-title
// challenges (target 1 with a configured title) match against the supplied
// fact; everything else is a distinct count over persisted history, so
// repeated or out-of-order triggers converge to the same value.
func (s *ChallengeService) measure(ctx context.Context, userID uuid.UUID, ch *challenge.Challenge, fact challenge.Fact, current int) (int, error) {
	switch ch.Kind {
	case challenge.KindManual:
		if fact.ManualComplete {
			return ch.TargetValue, nil
		}
		return current, nil

	case challenge.KindCountCourses:
		if ch.TargetValue == 1 && ch.ExactTitle != nil {
			if fact.Title == *ch.ExactTitle {
				return 1, nil
			}
			return current, nil
		}
		var count int
		err := s.db.QueryRow(ctx, `
		SELECT COUNT(DISTINCT course_id)
		FROM course_progress
		WHERE user_id = $1 AND part = 'test'
		`, userID).Scan(&count)
		if err != nil {
			return 0, fmt.Errorf("failed to count completed courses: %w", err)
		}
		return count, nil

	case challenge.KindCountGames:
		if ch.TargetValue == 1 && ch.ExactTitle != nil {
			if fact.Title == *ch.ExactTitle {
				return 1, nil
			}
			return current, nil
		}
		var count int
		err := s.db.QueryRow(ctx, `
		SELECT COUNT(DISTINCT game_type)
		FROM completed_games
		WHERE user_id = $1
		`, userID).Scan(&count)
		if err != nil {
			return 0, fmt.Errorf("failed to count played game types: %w", err)
		}
		return count, nil
	}

	return 0, fmt.Errorf("%w: unknown challenge kind %q", ErrInvalidInput, ch.Kind)
}

// complete attempts the not-completed -> completed transition. The guarded
// UPDATE decides a single winner under concurrency; the star reward commits
// in the same transaction so a completed challenge is never left unrewarded.
func (s *ChallengeService) complete(ctx context.Context, userID uuid.UUID, ch *challenge.Challenge, measure int) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin completion transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
	UPDATE user_challenges
	SET progress = $3, completed = true, completed_at = NOW()
	WHERE user_id = $1 AND challenge_id = $2 AND completed = false
	`, userID, ch.ID, measure)
	if err != nil {
		return false, fmt.Errorf("failed to mark challenge completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	reward := ch.StarReward
	_, err = s.starService.award(ctx, tx, userID, fmt.Sprintf("Challenge Completion: %s", ch.Name), &reward)
	if err != nil {
		return false, fmt.Errorf("failed to award challenge reward: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit completion: %w", err)
	}
	return true, nil
}

// EvaluateKind re-evaluates every active challenge of a kind for the user.
// Called from the course and game hooks after new ground truth is recorded.
func (s *ChallengeService) EvaluateKind(ctx context.Context, userID uuid.UUID, kind challenge.Kind, fact challenge.Fact) ([]achievement.Unlocked, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown challenge kind %q", ErrInvalidInput, kind)
	}

	rows, err := s.db.Query(ctx, `
	SELECT id, name, description, kind, target_value, exact_title, star_reward, active, created_at
	FROM challenges
	WHERE kind = $1 AND active
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list active challenges: %w", err)
	}

	var active []*challenge.Challenge
	for rows.Next() {
		ch := &challenge.Challenge{}
		err := rows.Scan(
			&ch.ID,
			&ch.Name,
			&ch.Description,
			&ch.Kind,
			&ch.TargetValue,
			&ch.ExactTitle,
			&ch.StarReward,
			&ch.Active,
			&ch.CreatedAt,
		)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		active = append(active, ch)
	}
	rows.Close()

	var unlocked []achievement.Unlocked
	for _, ch := range active {
		res, err := s.evaluate(ctx, userID, ch, fact)
		if err != nil {
			return unlocked, err
		}
		unlocked = append(unlocked, res.Unlocked...)
	}
	return unlocked, nil
}

// GetProgress reports the user's state on one challenge. A user who never
// triggered an evaluation has no progress row; that reads as not started.
func (s *ChallengeService) GetProgress(ctx context.Context, userID, challengeID uuid.UUID) (*challenge.UserChallenge, error) {
	if _, err := s.GetChallenge(ctx, challengeID); err != nil {
		return nil, err
	}

	uc := &challenge.UserChallenge{UserID: userID, ChallengeID: challengeID}
	err := s.db.QueryRow(ctx, `
	SELECT id, progress, completed, completed_at
	FROM user_challenges
	WHERE user_id = $1 AND challenge_id = $2
	`, userID, challengeID).Scan(&uc.ID, &uc.Progress, &uc.Completed, &uc.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uc, nil
		}
		return nil, fmt.Errorf("failed to get challenge progress: %w", err)
	}
	return uc, nil
}

func (s *ChallengeService) ListChallenges(ctx context.Context, userID uuid.UUID) ([]*challenge.ChallengeWithProgress, error) {
	rows, err := s.db.Query(ctx, `
	SELECT
		c.id, c.name, c.description, c.kind, c.target_value, c.exact_title,
		c.star_reward, c.active, c.created_at,
		COALESCE(uc.progress, 0), COALESCE(uc.completed, false), uc.completed_at
	FROM challenges c
	LEFT JOIN user_challenges uc ON uc.challenge_id = c.id AND uc.user_id = $1
	WHERE c.active
	ORDER BY c.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*challenge.ChallengeWithProgress
	for rows.Next() {
		ch := &challenge.ChallengeWithProgress{}
		err := rows.Scan(
			&ch.ID,
			&ch.Name,
			&ch.Description,
			&ch.Kind,
			&ch.TargetValue,
			&ch.ExactTitle,
			&ch.StarReward,
			&ch.Active,
			&ch.CreatedAt,
			&ch.Progress,
			&ch.Completed,
			&ch.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, ch)
	}

	return challenges, nil
}
