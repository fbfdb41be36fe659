package services

import (
	"context"
	"fmt"
	"strings"

	"prepwise/models"
	"prepwise/services/prompt"

	"github.com/rs/zerolog/log"
)

const ProfileCreatedMessage = "Profile created successfully"

type ProfileService struct {
	memoryService *MemoryService
}

func NewProfileService(memoryService *MemoryService) *ProfileService {
	return &ProfileService{memoryService: memoryService}
}

// SaveProfile stores the profile as a single user sentence in memory. The
// model is not involved.
func (s *ProfileService) SaveProfile(ctx context.Context, req *models.ProfileRequest) (*models.ProfileResponse, error) {
	log.Info().Msg("[INFO] Starting profile setup")

	if err := s.validateProfileRequest(req); err != nil {
		log.Error().Err(err).Msg("[ERROR] Profile validation failed")
		return nil, err
	}

	message := models.Message{
		Role:    models.RoleUser,
		Content: prompt.ProfileSentence(req),
	}

	if err := s.memoryService.AddMessages(ctx, req.SessionID, "", []models.Message{message}); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	log.Info().Msgf("[INFO] Successfully saved profile for session %s", req.SessionID)
	return &models.ProfileResponse{
		Status:  "success",
		Message: ProfileCreatedMessage,
	}, nil
}

func (s *ProfileService) validateProfileRequest(req *models.ProfileRequest) error {
	if req == nil {
		return &ValidationError{Message: "request cannot be nil"}
	}

	fields := []struct {
		name    string
		present bool
	}{
		{"session_id", strings.TrimSpace(req.SessionID) != ""},
		{"name", strings.TrimSpace(req.Name) != ""},
		{"exam", strings.TrimSpace(req.Exam) != ""},
		{"subjects", len(req.Subjects) > 0},
		{"understanding_level", strings.TrimSpace(req.UnderstandingLevel) != ""},
		{"school_year", strings.TrimSpace(req.SchoolYear) != ""},
		{"target_year", strings.TrimSpace(req.TargetYear) != ""},
		{"daily_study_time", strings.TrimSpace(req.DailyStudyTime) != ""},
	}

	var missing []string
	for _, field := range fields {
		if !field.present {
			missing = append(missing, field.name)
		}
	}

	if len(missing) > 0 {
		return &ValidationError{Message: "Missing required fields: " + strings.Join(missing, ", ")}
	}
	return nil
}
