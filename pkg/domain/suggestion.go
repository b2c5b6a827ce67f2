package domain

// SuggestionCount is the number of records a suggestion response must carry.
const SuggestionCount = 3

// Suggestion is a candidate child proposed by the generative collaborator.
type Suggestion struct {
	Name        string   `json:"name" mapstructure:"name"`
	Description string   `json:"description" mapstructure:"description"`
	UseCases    []string `json:"useCases" mapstructure:"useCases"`
	Kind        Kind     `json:"kind" mapstructure:"kind"`
}

// SuggestRequest describes what the user wants to register and where.
type SuggestRequest struct {
	UseCase string `json:"use_case"`
	Parent  *Node  `json:"parent"`
}
