package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"soulhavenAPI/internal/star"
)

// querier is the subset of pgxpool.Pool and pgx.Tx the services need, so
// awards can run either standalone or inside a completion transaction.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type StarService struct {
	db *pgxpool.Pool
}

func NewStarService(db *pgxpool.Pool) *StarService {
	return &StarService{db: db}
}

// Award records one point-earning event: it resolves the action by name,
// appends a history entry and bumps the user's progression, all in one
// transaction. The append is unconditional — callers own dedup of the
// triggering event.
func (s *StarService) Award(ctx context.Context, userID uuid.UUID, actionName string, amount *int) (*star.AwardResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin award transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := s.award(ctx, tx, userID, actionName, amount)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit award: %w", err)
	}
	return result, nil
}

func (s *StarService) award(ctx context.Context, q querier, userID uuid.UUID, actionName string, amount *int) (*star.AwardResult, error) {
	if actionName == "" {
		return nil, fmt.Errorf("%w: action name is required", ErrInvalidInput)
	}

	var (
		actionID int
		applied  int
		err      error
	)
	if amount != nil {
		// A supplied amount overwrites the stored value for all future
		// awards of this action name.
		err = q.QueryRow(ctx, `
		INSERT INTO star_actions (name, amount)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET amount = EXCLUDED.amount
		RETURNING id, amount
		`, actionName, *amount).Scan(&actionID, &applied)
	} else {
		// The no-op DO UPDATE makes the conflicting row visible to
		// RETURNING; the stored amount stays as-is.
		err = q.QueryRow(ctx, `
		INSERT INTO star_actions (name, amount)
		VALUES ($1, 0)
		ON CONFLICT (name) DO UPDATE SET amount = star_actions.amount
		RETURNING id, amount
		`, actionName).Scan(&actionID, &applied)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upsert star action: %w", err)
	}

	// Atomic increment; level is a high-water mark and never decreases.
	var stars, level int
	err = q.QueryRow(ctx, `
	UPDATE user_progression
	SET stars = stars + $2,
	    level = GREATEST(level, (stars + $2) / 1000 + 1),
	    updated_at = NOW()
	WHERE user_id = $1
	RETURNING stars, level
	`, userID, applied).Scan(&stars, &level)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s has no progression record", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to update progression: %w", err)
	}

	_, err = q.Exec(ctx, `
	INSERT INTO star_history (id, user_id, action_id)
	VALUES ($1, $2, $3)
	`, uuid.New(), userID, actionID)
	if err != nil {
		return nil, fmt.Errorf("failed to record star history: %w", err)
	}

	starsAwarded.WithLabelValues(actionName).Add(float64(applied))

	return &star.AwardResult{
		Name:    actionName,
		Amount:  applied,
		Awarded: true,
		Stars:   stars,
		Level:   level,
	}, nil
}

func (s *StarService) GetProgression(ctx context.Context, userID uuid.UUID) (*star.Progression, error) {
	p := &star.Progression{UserID: userID}
	err := s.db.QueryRow(ctx, `
	SELECT stars, level FROM user_progression WHERE user_id = $1
	`, userID).Scan(&p.Stars, &p.Level)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s has no progression record", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get progression: %w", err)
	}
	return p, nil
}

func (s *StarService) GetStarHistory(ctx context.Context, userID uuid.UUID) ([]*star.HistoryEntry, error) {
	rows, err := s.db.Query(ctx, `
	SELECT h.id, h.user_id, h.action_id, a.name, a.amount, h.earned_at
	FROM star_history h
	JOIN star_actions a ON a.id = h.action_id
	WHERE h.user_id = $1
	ORDER BY h.earned_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch star history: %w", err)
	}
	defer rows.Close()

	var history []*star.HistoryEntry
	for rows.Next() {
		entry := &star.HistoryEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.ActionID,
			&entry.ActionName,
			&entry.Amount,
			&entry.EarnedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan star history entry: %w", err)
		}
		history = append(history, entry)
	}

	return history, nil
}
