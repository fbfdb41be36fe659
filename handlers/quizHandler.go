package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"prepwise/models"
	"prepwise/services"
	"prepwise/services/normalizer"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

type QuizHandler struct {
	service *services.QuizService
}

func NewQuizHandler(service *services.QuizService) *QuizHandler {
	return &QuizHandler{service: service}
}

func (h *QuizHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/agent/quiz", h.GenerateQuiz).Methods("POST")
}

func (h *QuizHandler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	log.Info().Msg("[INFO] Received quiz generation request")

	var req models.QuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("[ERROR] Failed to decode quiz request JSON")
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	quiz, err := h.service.GenerateQuiz(r.Context(), &req)
	if err != nil {
		var validationErr *services.ValidationError
		var parseErr *normalizer.ParseError

		switch {
		case errors.As(err, &validationErr):
			h.writeErrorResponse(w, http.StatusBadRequest, validationErr.Message)
		case errors.As(err, &parseErr):
			h.writeJSONResponse(w, http.StatusOK, models.QuizFailure{
				Error:     parseErr.Tag,
				RawOutput: parseErr.Raw,
			})
		default:
			log.Error().Err(err).Msg("[ERROR] Quiz generation failed")
			h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	log.Info().Msg("[INFO] Quiz generation completed successfully")
	h.writeJSONResponse(w, http.StatusOK, quiz)
}

func (h *QuizHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *QuizHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
