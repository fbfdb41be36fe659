package models

const DefaultQuizSessionID = "quiz-default"

type QuizRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// Quiz and QuizQuestion describe the shape the quiz agent is asked to
// produce. Responses are passed through as parsed JSON, not decoded into
// these types.
type Quiz struct {
	Topic     string         `json:"topic"`
	Questions []QuizQuestion `json:"questions"`
}

type QuizQuestion struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// QuizFailure is returned when the model output could not be parsed.
type QuizFailure struct {
	Error     string `json:"error"`
	RawOutput string `json:"raw_output"`
}
