package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"soulhavenAPI/internal/game"
	"soulhavenAPI/middleware"
	"soulhavenAPI/services"
)

type GameHandler struct {
	gameService *services.GameService
}

func NewGameHandler(gameService *services.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

type completeGameRequest struct {
	GameType string `json:"game_type"`
}

func (h *GameHandler) CompleteGame(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req completeGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.gameService.CompleteGame(ctx, userID, game.Type(req.GameType))
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
