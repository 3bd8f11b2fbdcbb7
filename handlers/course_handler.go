package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"soulhavenAPI/internal/course"
	"soulhavenAPI/middleware"
	"soulhavenAPI/services"
)

type CourseHandler struct {
	courseService *services.CourseService
}

func NewCourseHandler(courseService *services.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

type markPartCompleteRequest struct {
	CourseID string `json:"course_id"`
	Part     string `json:"part"`
	Score    *int   `json:"score,omitempty"`
}

func (h *CourseHandler) MarkPartComplete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req markPartCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid course id")
		return
	}

	result, err := h.courseService.MarkPartComplete(ctx, userID, courseID, course.Part(req.Part), req.Score)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *CourseHandler) GetCourseProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	courseID, err := uuid.Parse(mux.Vars(r)["courseID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid course id")
		return
	}

	progress, err := h.courseService.GetCourseProgress(ctx, userID, courseID)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, progress)
}
