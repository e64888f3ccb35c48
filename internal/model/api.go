package model

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

type ReadyResponse struct {
	OK          bool   `json:"ok"`
	ServiceName string `json:"service_name,omitempty"`
	Model       string `json:"model,omitempty"`
}

// CushionRequest is the form payload. Mbti and Context are the field names
// used by the first version of the form and are read only when the current
// names are empty.
type CushionRequest struct {
	OriginalMessage  string `json:"originalMessage"`
	RecipientStyle   string `json:"recipientStyle"`
	SituationContext string `json:"situationContext"`
	ImageBase64      string `json:"imageBase64,omitempty"`
	ImageMimeType    string `json:"imageMimeType,omitempty"`

	Mbti    string `json:"mbti,omitempty"`
	Context string `json:"context,omitempty"`
}

type CushionResponse struct {
	Score             int      `json:"score"`
	Suggestion        string   `json:"suggestion"`
	KoreanTranslation *string  `json:"koreanTranslation"`
	Insights          []string `json:"insights"`
}

type OptionsResponse struct {
	RecipientStyles         []string `json:"recipientStyles"`
	SituationContexts       []string `json:"situationContexts"`
	DefaultRecipientStyle   string   `json:"defaultRecipientStyle"`
	DefaultSituationContext string   `json:"defaultSituationContext"`
}
