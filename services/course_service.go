package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"soulhavenAPI/internal/achievement"
	"soulhavenAPI/internal/challenge"
	"soulhavenAPI/internal/course"
	"soulhavenAPI/internal/star"
)

var courseMilestones = map[int]achievement.Unlocked{
	1: {
		Name:        "First Course Completed",
		Description: "You completed your first full course!",
		Image:       "achievements/first_course.png",
	},
	3: {
		Name:        "Course Explorer",
		Description: "You've completed 3 courses — great learning streak!",
		Image:       "achievements/three_courses.png",
	},
}

type CourseService struct {
	db               *pgxpool.Pool
	starService      *StarService
	achievements     *AchievementService
	challengeService *ChallengeService
}

func NewCourseService(db *pgxpool.Pool, starService *StarService, achievements *AchievementService, challengeService *ChallengeService) *CourseService {
	return &CourseService{
		db:               db,
		starService:      starService,
		achievements:     achievements,
		challengeService: challengeService,
	}
}

type PartCompletionResult struct {
	CourseID       uuid.UUID              `json:"course_id"`
	Part           course.Part            `json:"part"`
	NewlyCompleted bool                   `json:"newly_completed"`
	Unlocked       []achievement.Unlocked `json:"achievements"`
}

// MarkPartComplete records completion of one course part. The
// (user, course, part) unique constraint dedups repeated submissions: only
// the first one awards stars and, for the test part, drives challenge
// evaluation and course milestones. The progress row and the part award
// commit in one transaction so a failed award leaves the part open for a
// retry; the test-part follow-ups run best-effort after commit.
func (s *CourseService) MarkPartComplete(ctx context.Context, userID, courseID uuid.UUID, part course.Part, score *int) (*PartCompletionResult, error) {
	if !part.Valid() {
		return nil, fmt.Errorf("%w: unknown course part %q", ErrInvalidInput, part)
	}

	var title string
	err := s.db.QueryRow(ctx, `SELECT title FROM courses WHERE id = $1`, courseID).Scan(&title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: course %s", ErrNotFound, courseID)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin part completion: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
	INSERT INTO course_progress (id, user_id, course_id, part, score)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (user_id, course_id, part) DO NOTHING
	`, uuid.New(), userID, courseID, part, score)
	if err != nil {
		return nil, fmt.Errorf("failed to record course progress: %w", err)
	}

	result := &PartCompletionResult{CourseID: courseID, Part: part}
	if tag.RowsAffected() == 0 {
		return result, nil
	}
	result.NewlyCompleted = true

	amount := star.AmountCoursePart
	actionName := fmt.Sprintf("Course Part Completion: %s - %s", title, part.Title())
	if _, err := s.starService.award(ctx, tx, userID, actionName, &amount); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit part completion: %w", err)
	}

	if part != course.PartTest {
		return result, nil
	}

	// The progress row is durable at this point; the follow-ups recompute
	// from it, so a failure here converges on the next test completion
	// or evaluation.
	unlocked, err := s.challengeService.EvaluateKind(ctx, userID, challenge.KindCountCourses, challenge.Fact{Title: title})
	if err != nil {
		log.Printf("MarkPartComplete: challenge evaluation failed for user %s after course %s: %v", userID, courseID, err)
		return result, nil
	}
	result.Unlocked = unlocked

	var completedCourses int
	err = s.db.QueryRow(ctx, `
	SELECT COUNT(DISTINCT course_id)
	FROM course_progress
	WHERE user_id = $1 AND part = 'test'
	`, userID).Scan(&completedCourses)
	if err != nil {
		log.Printf("MarkPartComplete: milestone count failed for user %s: %v", userID, err)
		return result, nil
	}

	if milestone, ok := courseMilestones[completedCourses]; ok {
		granted, err := s.achievements.Grant(ctx, userID, milestone.Name, milestone.Description, milestone.Image)
		if err != nil {
			log.Printf("MarkPartComplete: milestone grant failed for user %s: %v", userID, err)
			return result, nil
		}
		if granted {
			result.Unlocked = append(result.Unlocked, milestone)
		}
	}

	return result, nil
}

// GetCourseProgress reports which parts are done and whether the final test
// is reachable: theory, practice and video must all be completed first.
func (s *CourseService) GetCourseProgress(ctx context.Context, userID, courseID uuid.UUID) (*course.ProgressResponse, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)`, courseID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check course: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: course %s", ErrNotFound, courseID)
	}

	rows, err := s.db.Query(ctx, `
	SELECT part FROM course_progress
	WHERE user_id = $1 AND course_id = $2
	`, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch course progress: %w", err)
	}
	defer rows.Close()

	completed := make(map[course.Part]bool)
	resp := &course.ProgressResponse{CourseID: courseID, CompletedParts: []course.Part{}}
	for rows.Next() {
		var p course.Part
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan course progress: %w", err)
		}
		completed[p] = true
		resp.CompletedParts = append(resp.CompletedParts, p)
	}

	resp.CanAccessTest = completed[course.PartTheory] && completed[course.PartPractice] && completed[course.PartVideo]
	return resp, nil
}
