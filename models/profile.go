package models

type ProfileRequest struct {
	SessionID          string   `json:"session_id"`
	Name               string   `json:"name"`
	Exam               string   `json:"exam"`
	Subjects           []string `json:"subjects"`
	UnderstandingLevel string   `json:"understanding_level"`
	SchoolYear         string   `json:"school_year"`
	TargetYear         string   `json:"target_year"`
	DailyStudyTime     string   `json:"daily_study_time"`
}

type ProfileResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
