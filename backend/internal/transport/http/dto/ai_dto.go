package dto

type AIRequest struct {
	Action  string `json:"action"`
	Message string `json:"message,omitempty"`
	Context string `json:"context,omitempty"`
}

type AIIdeaResponse struct {
	Idea any `json:"idea"`
}

type AIChatResponse struct {
	Response string `json:"response"`
}
