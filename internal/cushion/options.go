package cushion

import "slices"

const (
	DefaultRecipientStyle   = "INFP"
	DefaultSituationContext = "휴가 중 보고"
)

// RecipientStyles lists the MBTI codes offered by the form, in display order.
var RecipientStyles = []string{
	"INTJ", "INTP", "ENTJ", "ENTP",
	"INFJ", "INFP", "ENFJ", "ENFP",
	"ISTJ", "ISFJ", "ESTJ", "ESFJ",
	"ISTP", "ISFP", "ESTP", "ESFP",
}

var SituationContexts = []string{
	"휴가 중 보고",
	"상사 실수 지적",
	"긴급 요청",
	"거절 메시지",
	"사과 메시지",
	"부탁 메시지",
}

func IsKnownStyle(style string) bool {
	return slices.Contains(RecipientStyles, style)
}

func IsKnownContext(context string) bool {
	return slices.Contains(SituationContexts, context)
}
