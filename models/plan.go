package models

type Topic struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Subject string `json:"subject"`
}

type Plan struct {
	Topics []Topic `json:"topics"`
}

// EmptyPlan is returned whenever plan generation fails for any reason.
func EmptyPlan() Plan {
	return Plan{Topics: []Topic{}}
}
