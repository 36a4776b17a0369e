package model

// ScreeningQuestion is one intake question from the question registry.
// AnswerKey is the stable identifier other questions' display conditions
// reference; DisplayCondition is an expression in the conditional grammar,
// or empty for always-visible questions.
type ScreeningQuestion struct {
	ID               string `json:"id"`
	Text             string `json:"text"`
	AnswerKey        string `json:"answer_key"`
	InputType        string `json:"input_type"`
	DisplayCondition string `json:"display_condition,omitempty"`
	Order            int    `json:"order"`
	Status           string `json:"status"`
}
