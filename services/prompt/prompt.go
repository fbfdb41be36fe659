// Package prompt turns remembered user facts and a task into instruction
// text for the model. Every function here is pure.
package prompt

import (
	"fmt"
	"strings"

	"prepwise/models"

	"github.com/samber/lo"
)

const (
	NoContext = "No specific user context provided."

	PurposeQuiz = "quiz"
	PurposePlan = "study plan"

	PlanPrompt = "Create a learning plan with topic suggestions for each subject based on my goals."

	quizExampleJSON = `{
  "topic": "Topic Name",
  "questions": [
    {
      "id": "1",
      "question": "...",
      "options": ["A", "B", "C", "D"],
      "correctAnswer": "A",
      "explanation": "..."
    },
    ...
  ]
}`

	planExampleJSON = `{ "topics": [ { "id": "1", "title": "...", "subject": "..." }, ... ] }`

	QUIZ_PROMPT = `%s

Now generate a quiz on the topic: "%s".

Respond only with valid JSON in the following format:

{
  "topic": "%s",
  "questions": [
    {
      "id": "1",
      "question": "Sample question?",
      "options": ["A", "B", "C", "D"],
      "correctAnswer": "Correct Option",
      "explanation": "Explain the correct answer."
    },
    ...
  ]
}

Make sure to generate between 10 to 20 questions.
Avoid extra commentary, explanation, or markdown formatting.
`

	PROFILE_SENTENCE = "My name is %s. I'm preparing for %s. My subjects are %s. I'm at a %s level. I'm in %s, targeting %s. I can study %s per day."
)

// MemoryTexts returns the non-blank memory texts in their original order.
func MemoryTexts(entries []models.MemoryEntry) []string {
	return lo.FilterMap(entries, func(entry models.MemoryEntry, _ int) (string, bool) {
		return entry.Memory, strings.TrimSpace(entry.Memory) != ""
	})
}

// UserContext renders memories as a bullet list followed by a request to
// personalise the given purpose. With no usable memories it returns
// NoContext instead of an empty list.
func UserContext(entries []models.MemoryEntry, purpose string) string {
	texts := MemoryTexts(entries)
	if len(texts) == 0 {
		return NoContext
	}

	var b strings.Builder
	b.WriteString("Here is what I know about the user:\n\n")
	for i, text := range texts {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(text)
	}
	b.WriteString(fmt.Sprintf("\n\nUse this information to generate a personalized %s.", purpose))
	return b.String()
}

func QuizPrompt(topic string, entries []models.MemoryEntry) string {
	return fmt.Sprintf(QUIZ_PROMPT, UserContext(entries, PurposeQuiz), topic, topic)
}

func QuizInstructions(entries []models.MemoryEntry) []string {
	return []string{
		"You are a quiz generator for academic subjects like Biology, Physics, Chemistry, and more.",
		"Return only valid JSON in this format:",
		quizExampleJSON,
		"Include 10 to 20 questions max.",
		"Avoid any commentary, extra text, or markdown formatting.",
		UserContext(entries, PurposeQuiz),
	}
}

func PlanInstructions(entries []models.MemoryEntry) []string {
	return []string{
		"You are a study planner AI for competitive exams like NEET, JEE, etc.",
		"Given the user's exam, subjects, understanding level, and daily study time, create a focused learning plan.",
		"Respond only with JSON in this format:\n" + planExampleJSON,
		"Choose important foundational topics from each subject the user has chosen.",
		UserContext(entries, PurposePlan),
	}
}

func ExamInstructions(webTools bool) []string {
	instructions := []string{
		"You are an AI exam assistant who explains concepts clearly, generates multiple choice quizzes, creates study schedules, and summarizes learning material.",
	}
	if webTools {
		instructions = append(instructions, "Use the fetch_url tool to read curriculum-related content from the web when the user points you at a page or you need an authoritative source.")
	}
	return append(instructions,
		"Use the search_memory tool to look up specific things the user has told you before.",
		"Recall what the user has previously shared and learned.",
		"Show output in markdown or JSON where possible.",
	)
}

func ProfileSentence(profile *models.ProfileRequest) string {
	return fmt.Sprintf(PROFILE_SENTENCE,
		profile.Name,
		profile.Exam,
		strings.Join(profile.Subjects, ", "),
		profile.UnderstandingLevel,
		profile.SchoolYear,
		profile.TargetYear,
		profile.DailyStudyTime,
	)
}
