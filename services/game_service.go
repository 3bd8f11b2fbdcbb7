package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"soulhavenAPI/internal/achievement"
	"soulhavenAPI/internal/challenge"
	"soulhavenAPI/internal/game"
	"soulhavenAPI/internal/star"
)

type GameService struct {
	db               *pgxpool.Pool
	starService      *StarService
	achievements     *AchievementService
	challengeService *ChallengeService
}

func NewGameService(db *pgxpool.Pool, starService *StarService, achievements *AchievementService, challengeService *ChallengeService) *GameService {
	return &GameService{
		db:               db,
		starService:      starService,
		achievements:     achievements,
		challengeService: challengeService,
	}
}

type GameCompletionResult struct {
	GameType game.Type              `json:"game_type"`
	Unlocked []achievement.Unlocked `json:"achievements"`
}

// CompleteGame records one play of a mini-game. Every play is a new ledger
// event and earns the flat game reward; the first play of a game type also
// grants that type's starter achievement, then the count_games challenges
// are re-evaluated.
func (s *GameService) CompleteGame(ctx context.Context, userID uuid.UUID, gameType game.Type) (*GameCompletionResult, error) {
	if !gameType.Valid() {
		return nil, fmt.Errorf("%w: unknown game type %q", ErrInvalidInput, gameType)
	}

	_, err := s.db.Exec(ctx, `
	INSERT INTO completed_games (id, user_id, game_type)
	VALUES ($1, $2, $3)
	`, uuid.New(), userID, gameType)
	if err != nil {
		return nil, fmt.Errorf("failed to record completed game: %w", err)
	}

	amount := star.AmountGameCompletion
	if _, err := s.starService.Award(ctx, userID, fmt.Sprintf("Game Completion: %s", gameType.Title()), &amount); err != nil {
		return nil, err
	}

	result := &GameCompletionResult{GameType: gameType}

	var plays int
	err = s.db.QueryRow(ctx, `
	SELECT COUNT(*) FROM completed_games WHERE user_id = $1 AND game_type = $2
	`, userID, gameType).Scan(&plays)
	if err != nil {
		return nil, fmt.Errorf("failed to count plays: %w", err)
	}

	if plays == 1 {
		starter := game.StarterAchievements[gameType]
		granted, err := s.achievements.Grant(ctx, userID, starter.Name, starter.Description, starter.Image)
		if err != nil {
			return nil, err
		}
		if granted {
			result.Unlocked = append(result.Unlocked, achievement.Unlocked{
				Name:        starter.Name,
				Description: starter.Description,
				Image:       starter.Image,
			})
		}
	}

	unlocked, err := s.challengeService.EvaluateKind(ctx, userID, challenge.KindCountGames, challenge.Fact{Title: string(gameType)})
	if err != nil {
		return nil, err
	}
	result.Unlocked = append(result.Unlocked, unlocked...)

	return result, nil
}
