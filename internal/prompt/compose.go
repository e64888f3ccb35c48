// Package prompt builds the instruction text sent to the model. The JSON field
// names declared here are the contract the response parser validates against.
package prompt

import (
	"fmt"
	"strings"
)

const (
	FieldScore             = "score"
	FieldSuggestion        = "suggestion"
	FieldKoreanTranslation = "koreanTranslation"
	FieldInsights          = "insights"
)

// MissingMessageMarker replaces the quoted message when only an image was sent.
const MissingMessageMarker = "(제공되지 않음. 첨부된 이미지 내용을 원본 메시지로 간주하고 분석해주세요.)"

const roleIntro = `당신은 직장 내 원활한 협업을 돕는 비즈니스 커뮤니케이션 에이전트 'CushionFlow'입니다.
사용자가 작성한 메시지(또는 첨부된 스크린샷 이미지)를 분석하고, 수신자의 업무 성향(MBTI)과 상황 맥락을 고려하여 사내 갈등을 예방하는 건설적이고 정중한 '쿠션어'로 변환해 주세요.`

const taskRules = `[요청 사항]
1. 원본 메시지가 그대로 전송될 경우 갈등이 발생할 리스크를 반대로 환산하여 '쿠션 지수(0~100점)'로 평가하세요 (100점이 가장 갈등 요소 없고 정중함). 고정된 값을 반복하지 말고 원본 메시지의 상태에 따라 매번 다르게 평가하세요.
2. 수신자의 업무 스타일과 주어진 상황 맥락을 배려하여 원본 메시지를 수정하세요. 비즈니스 생산성을 높일 수 있는 1차 제안을 작성합니다.
3. 왜 이렇게 수정했는지 비즈니스/커뮤니케이션적 근거를 3~4개의 핵심 포인트로 나누어 에이전트 분석을 제공하세요. 각 포인트는 수신자 업무 성향과 상황 맥락을 근거로 삼아야 합니다.`

const languageRules = `[다국어 처리 특별 규칙]
- 제안하는 쿠션어 메시지(%[1]s)는 **반드시 사용자가 입력한 메시지 또는 이미지 내 텍스트 언어 (영어, 일본어, 중국어, 한국어 등)와 완벽히 동일한 언어**로 작성하세요.
- 단, 에이전트 분석(%[2]s) 항목은 한국인 사용자를 위해 **무조건 한국어**로 작성하세요.
- 만약 제안하는 메시지(%[1]s)가 한국어가 아닌 외국어라면 한국인 사용자가 뜻을 알 수 있도록 **한국어 번역(%[3]s)을 함께 제공**하세요. 제안 메시지가 한국어라면 %[3]s는 반드시 null로 둡니다.`

const outputRules = `[출력 형식]
반드시 아래 필드만 가진 JSON 객체 하나로만 응답하세요. JSON 외의 설명, 인사말, 마크다운은 포함하지 마세요.
{
  "%[1]s": 85,
  "%[2]s": "수정된 쿠션어 메시지",
  "%[3]s": "한국어 번역 (한국어 원문일 경우 null)",
  "%[4]s": [
    "ENTJ는 효율성을 중시하므로 결론부터 짚어 명확성을 높였습니다.",
    "휴가 중이라는 특수성을 고려하여 수신자의 통제권을 존중하는 비즈니스 매너를 적용했습니다."
  ]
}
- %[1]s: 0에서 100 사이의 정수
- %[2]s: 비어 있지 않은 문자열
- %[3]s: 문자열 또는 null
- %[4]s: 문자열 3~4개로 이루어진 배열`

// Input is everything the composer needs; image bytes never enter the prompt.
type Input struct {
	OriginalMessage  string
	RecipientStyle   string
	SituationContext string
}

// Compose returns the full instruction text for one transformation.
func Compose(in Input) string {
	var b strings.Builder

	b.WriteString(roleIntro)
	b.WriteString("\n\n[입력 데이터]\n")
	if strings.TrimSpace(in.OriginalMessage) != "" {
		b.WriteString(`- 원본 메시지 텍스트: "` + in.OriginalMessage + "\"\n")
	} else {
		b.WriteString("- 원본 메시지 텍스트: " + MissingMessageMarker + "\n")
	}
	b.WriteString("- 수신자 업무 성향 (MBTI): " + in.RecipientStyle + "\n")
	b.WriteString("- 상황 맥락: " + in.SituationContext + "\n\n")

	b.WriteString(taskRules)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, languageRules, FieldSuggestion, FieldInsights, FieldKoreanTranslation)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, outputRules, FieldScore, FieldSuggestion, FieldKoreanTranslation, FieldInsights)
	b.WriteString("\n")

	return b.String()
}
