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

	"soulhavenAPI/internal/star"
	"soulhavenAPI/internal/user"
)

type UserService struct {
	db          *pgxpool.Pool
	starService *StarService
}

func NewUserService(db *pgxpool.Pool, starService *StarService) *UserService {
	return &UserService{db: db, starService: starService}
}

// CreateUser provisions a new account: the user row, a zeroed progression
// record and the one-time registration reward, all in one transaction. The
// identity provider calling this owns authentication; this service only
// reacts to the creation event.
func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	if req.Email == "" || req.Username == "" {
		return nil, fmt.Errorf("%w: email and username are required", ErrInvalidInput)
	}

	nickname := req.Nickname
	if nickname == "" {
		nickname = req.Username
	}

	u := &user.User{
		ID:        uuid.New().String(),
		Email:     req.Email,
		Username:  req.Username,
		Nickname:  nickname,
		AvatarURL: req.AvatarURL,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin user creation: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
	INSERT INTO users (id, email, username, nickname, avatar_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, email, username, nickname, avatar_url, created_at, updated_at
	`

	err = tx.QueryRow(
		ctx,
		query,
		u.ID,
		u.Email,
		u.Username,
		u.Nickname,
		u.AvatarURL,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.Nickname,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	userID := uuid.MustParse(u.ID)
	_, err = tx.Exec(ctx, `
	INSERT INTO user_progression (user_id, stars, level)
	VALUES ($1, 0, 1)
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create progression record: %w", err)
	}

	registration := star.AmountRegistration
	if _, err := s.starService.award(ctx, tx, userID, star.ActionRegistration, &registration); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit user creation: %w", err)
	}

	log.Printf("CreateUser: provisioned user %s with registration reward", u.ID)
	return u, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	query := `
	SELECT id, email, username, nickname, avatar_url, created_at, updated_at
	FROM users
	WHERE id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.Nickname,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// UpdateProfile changes the mutable profile fields. Empty request fields
// leave the stored values untouched.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *user.UpdateProfileRequest) (*user.User, error) {
	u := &user.User{}
	err := s.db.QueryRow(ctx, `
	UPDATE users
	SET username = COALESCE(NULLIF($2, ''), username),
	    nickname = COALESCE(NULLIF($3, ''), nickname),
	    avatar_url = COALESCE(NULLIF($4, ''), avatar_url),
	    updated_at = NOW()
	WHERE id = $1
	RETURNING id, email, username, nickname, avatar_url, created_at, updated_at
	`, userID, req.Username, req.Nickname, req.AvatarURL).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.Nickname,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return u, nil
}

// RecordDailyLogin issues the daily login reward at most once per calendar
// day. The (user_id, login_date) constraint is the day marker; a second
// login the same day inserts nothing and awards nothing. Marker and award
// commit together, so a failed award leaves the day open for a retry.
func (s *UserService) RecordDailyLogin(ctx context.Context, userID uuid.UUID) (*star.AwardResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin login transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
	INSERT INTO user_logins (id, user_id, login_date)
	VALUES ($1, $2, CURRENT_DATE)
	ON CONFLICT (user_id, login_date) DO NOTHING
	`, uuid.New(), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return nil, nil
	}

	amount := star.AmountDailyLogin
	result, err := s.starService.award(ctx, tx, userID, star.ActionDailyLogin, &amount)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit login reward: %w", err)
	}
	return result, nil
}
