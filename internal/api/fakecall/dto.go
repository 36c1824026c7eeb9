package fakecall

import "PanicButton/pkg/llm"

type GenerateRequest struct {
	Language string `json:"language" validate:"omitempty,max=8"`
}

type RespondRequest struct {
	Language            string        `json:"language" validate:"omitempty,max=8"`
	UserMessage         string        `json:"userMessage" validate:"max=2000"`
	ConversationHistory []llm.Message `json:"conversationHistory" validate:"max=50,dive"`
}

// Speech is one synthesized caller line.
type Speech struct {
	Language    string
	Text        string
	Audio       []byte
	ContentType string
	Scripted    bool
}
