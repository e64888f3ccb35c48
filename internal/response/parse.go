// Package response turns raw model output into a validated cushion.Result.
// Model output is untrusted: every field is type-checked before use.
package response

import (
	"math"
	"regexp"
	"strings"

	"cushionflow/internal/cushion"
	"cushionflow/internal/prompt"

	"github.com/tidwall/gjson"
)

// legacyScoreField is accepted when the model names the score after the
// domain term instead of the requested key.
const legacyScoreField = "cushionScore"

var (
	openingFence = regexp.MustCompile("^```[ \t]*[A-Za-z0-9_+-]*[ \t]*\r?\n?")
	closingFence = regexp.MustCompile("\r?\n?[ \t]*```$")
)

// StripFences removes a leading Markdown code fence (with or without a
// language tag), a trailing fence, and surrounding whitespace.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = openingFence.ReplaceAllString(text, "")
	}
	if strings.HasSuffix(text, "```") {
		text = closingFence.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

func Parse(raw string) (cushion.Result, error) {
	text := StripFences(raw)
	if !gjson.Valid(text) {
		return cushion.Result{}, cushion.ParseError(cushion.ReasonInvalidJSON, nil)
	}
	root := gjson.Parse(text)
	if !root.IsObject() {
		return cushion.Result{}, cushion.ParseError(cushion.ReasonInvalidJSON, nil)
	}

	score, err := parseScore(root)
	if err != nil {
		return cushion.Result{}, err
	}
	suggestion, err := parseSuggestion(root)
	if err != nil {
		return cushion.Result{}, err
	}
	translation, err := parseTranslation(root)
	if err != nil {
		return cushion.Result{}, err
	}
	insights, err := parseInsights(root)
	if err != nil {
		return cushion.Result{}, err
	}

	return cushion.Result{
		Score:             score,
		Suggestion:        suggestion,
		KoreanTranslation: translation,
		Insights:          insights,
	}, nil
}

// parseScore accepts any JSON number. Values outside 0..100 are returned
// as-is; only numbers an int cannot hold are rejected.
func parseScore(root gjson.Result) (int, error) {
	field := root.Get(prompt.FieldScore)
	if !field.Exists() {
		field = root.Get(legacyScoreField)
	}
	if field.Type != gjson.Number {
		return 0, cushion.SchemaViolation(prompt.FieldScore)
	}
	rounded := math.Round(field.Num)
	if math.IsNaN(rounded) || rounded >= float64(math.MaxInt) || rounded < float64(math.MinInt) {
		return 0, cushion.SchemaViolation(prompt.FieldScore)
	}
	return int(rounded), nil
}

func parseSuggestion(root gjson.Result) (string, error) {
	field := root.Get(prompt.FieldSuggestion)
	if field.Type != gjson.String || strings.TrimSpace(field.Str) == "" {
		return "", cushion.SchemaViolation(prompt.FieldSuggestion)
	}
	return field.Str, nil
}

func parseTranslation(root gjson.Result) (*string, error) {
	field := root.Get(prompt.FieldKoreanTranslation)
	switch {
	case !field.Exists(), field.Type == gjson.Null:
		return nil, nil
	case field.Type != gjson.String:
		return nil, cushion.SchemaViolation(prompt.FieldKoreanTranslation)
	}
	translation := field.Str
	return &translation, nil
}

// parseInsights repairs a bare string into a one-element list.
func parseInsights(root gjson.Result) ([]string, error) {
	field := root.Get(prompt.FieldInsights)
	switch {
	case field.Type == gjson.String:
		if strings.TrimSpace(field.Str) == "" {
			return nil, cushion.SchemaViolation(prompt.FieldInsights)
		}
		return []string{field.Str}, nil
	case field.IsArray():
		items := field.Array()
		insights := make([]string, 0, len(items))
		for _, item := range items {
			if item.Type != gjson.String {
				return nil, cushion.SchemaViolation(prompt.FieldInsights)
			}
			insights = append(insights, item.Str)
		}
		return insights, nil
	default:
		return nil, cushion.SchemaViolation(prompt.FieldInsights)
	}
}
