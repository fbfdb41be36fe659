package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"prepwise/models"
	"prepwise/services"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const PlanSessionRequiredMessage = "session_id is required"

type AgentHandler struct {
	profileService *services.ProfileService
	examService    *services.ExamService
	planService    *services.PlanService
}

func NewAgentHandler(profileService *services.ProfileService, examService *services.ExamService, planService *services.PlanService) *AgentHandler {
	return &AgentHandler{
		profileService: profileService,
		examService:    examService,
		planService:    planService,
	}
}

func (h *AgentHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/agent/setup", h.SetupProfile).Methods("POST")
	router.HandleFunc("/agent/ask", h.Ask).Methods("POST")
	router.HandleFunc("/agent/plan", h.GetPlan).Methods("GET")
}

func (h *AgentHandler) SetupProfile(w http.ResponseWriter, r *http.Request) {
	log.Info().Msg("[INFO] Received profile setup request")

	var req models.ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("[ERROR] Failed to decode profile request JSON")
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	resp, err := h.profileService.SaveProfile(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, resp)
}

func (h *AgentHandler) Ask(w http.ResponseWriter, r *http.Request) {
	log.Info().Msg("[INFO] Received ask request")

	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("[ERROR] Failed to decode ask request JSON")
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	resp, err := h.examService.Ask(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	log.Info().Msg("[INFO] Ask request completed successfully")
	h.writeJSONResponse(w, http.StatusOK, resp)
}

func (h *AgentHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	log.Info().Msg("[INFO] Received plan request")

	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		log.Error().Msg("[ERROR] Plan request is missing session_id")
		h.writeErrorResponse(w, http.StatusBadRequest, PlanSessionRequiredMessage)
		return
	}

	plan := h.planService.GeneratePlan(r.Context(), sessionID)
	h.writeJSONResponse(w, http.StatusOK, plan)
}

// writeServiceError maps validation failures to 400 and everything else
// to 500 with the error text.
func (h *AgentHandler) writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		h.writeErrorResponse(w, http.StatusBadRequest, validationErr.Message)
		return
	}

	log.Error().Err(err).Msg("[ERROR] Agent request failed")
	h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
}

func (h *AgentHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *AgentHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
