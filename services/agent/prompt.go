package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"prepwise/models"
)

const maxToolRounds = 5

// systemPrompt joins the instructions and appends the request context as
// a JSON block the model can read.
func systemPrompt(req models.RunRequest) (string, error) {
	var b strings.Builder
	for _, instruction := range req.Instructions {
		b.WriteString(instruction)
		b.WriteString("\n")
	}

	if len(req.Context) > 0 {
		contextJSON, err := json.MarshalIndent(req.Context, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal agent context: %w", err)
		}
		b.WriteString("\n<context>\n")
		b.Write(contextJSON)
		b.WriteString("\n</context>\n")
	}

	return b.String(), nil
}
