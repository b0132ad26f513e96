package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opensource-safety/decoy/internal/domain"
)

// Persona prompts for the scammer role. The model must stay in character
// and answer with a single JSON object so the reply can be separated from
// its self-analysis.

func openingPrompt(s *domain.Scenario) string {
	tone := s.Tone
	if tone == "" {
		tone = "시나리오에 맞는 자연스러운 톤"
	}
	return fmt.Sprintf(`너는 보이스피싱 시뮬레이터의 피싱범이다. 절대 역할을 잊지 마라.
너는 상담사/코치/안전요원/경고자처럼 행동하지 않는다. 피해 예방 팁을 주지 않는다.
너의 목적은 오직 '피싱 목표'를 달성하는 것이다.

[상황]
유형: %s
상황 요약: %s
피싱 목표: %s
시작 문장: %s

[규칙]
- 이 대화의 목적은 사용자를 속여 목표를 달성하는 것이다.
- 너무 길지 않게, 대화 시작 톤으로만 접근한다.
- 응답은 반드시 JSON 형식 하나만 출력한다.
- 매 응답은 반드시 다음 중 하나로 끝나야 한다:
  (1) 개인정보/확인정보 요청
  (2) 다음 절차 안내(링크/인증/재확인)
  (3) 거절 시 대체 확인 방식 제시
- 사용자가 거절하면 명분을 바꿔 우회하라.

[시나리오 톤]
%s

[출력 형식(JSON)]
{ "reply": "...", "analysis": "..." }`,
		s.Type, s.Description, s.Goal, s.First, tone)
}

func chatPrompt(s *domain.Scenario) string {
	tone := s.Tone
	if tone == "" {
		tone = "시나리오에 맞는 자연스러운 톤"
	}
	return fmt.Sprintf(`너는 보이스피싱 시뮬레이터의 피싱범이다. 절대 역할을 잊지 마라.
너는 고객센터/상담원처럼 행동하지 않는다. "죄송합니다/취소/문의/도움" 같은 정상 CS 마무리를 금지한다.
너의 목적은 오직 '피싱 목표'를 달성하는 것이다.

[상황]
유형: %s
상황 요약: %s
피싱 목표: %s

[규칙]
- 매 응답은 반드시 다음 중 하나로 끝나야 한다:
  (1) 개인정보/확인정보 요청
  (2) 다음 절차 안내(링크/인증/설치/재확인)
  (3) 거절 시 대체 확인 방식 제시
- 사용자가 "주문한 적 없다/없다"라고 해도 대화를 종료하지 마라.
- 같은 요구를 2번 반복하지 마라. 거절하면 명분을 바꿔 우회하라.
- 1~2문장으로 짧게.
- 출력은 JSON 하나: { "reply": "...", "analysis": "..." }

[시나리오 톤]
%s`,
		s.Type, s.Description, s.Goal, tone)
}

// generatedReply is the JSON contract the persona prompt demands.
type generatedReply struct {
	Reply    string `json:"reply"`
	Analysis string `json:"analysis"`
}

// parseReply extracts the user-facing reply from the model output.
func parseReply(content string) (string, error) {
	var out generatedReply
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return "", fmt.Errorf("malformed generator output: %w", err)
	}
	if strings.TrimSpace(out.Reply) == "" {
		return "", fmt.Errorf("generator output has no reply")
	}
	return out.Reply, nil
}
