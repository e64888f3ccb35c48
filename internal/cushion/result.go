package cushion

// Result is a validated transformation result. KoreanTranslation is nil when
// the suggestion is already written in Korean.
type Result struct {
	Score             int
	Suggestion        string
	KoreanTranslation *string
	Insights          []string
}
