package domain

import (
	"time"
)

// Room is one simulated scam conversation.
type Room struct {
	ID                  string     `json:"id"`
	ScenarioType        string     `json:"scenarioType"`
	ScenarioDescription string     `json:"scenarioDescription"`
	PhishingGoal        string     `json:"phishingGoal"`
	CreatedAt           time.Time  `json:"createdAt"`
	EndedAt             *time.Time `json:"endedAt,omitempty"`
}

// Message is one entry in a room's append-only log.
type Message struct {
	ID        int64     `json:"id"`
	RoomID    string    `json:"roomId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message sender tags.
const (
	SenderUser    = "user"
	SenderScammer = "scammer"
	SenderSystem  = "system"
)

// Scenario describes one scammer persona.
type Scenario struct {
	Key         string `json:"key"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Goal        string `json:"goal"`
	First       string `json:"first"`
	Tone        string `json:"tone"`
}

// Scenarios is the fixed persona catalog, keyed by scenario key.
var Scenarios = map[string]Scenario{
	"delivery": {
		Key:         "delivery",
		Type:        "택배 사칭",
		Description: "주소 오류로 배송이 보류되었다고 연락함",
		Goal:        "주소 및 개인정보 획득",
		First:       "안녕하세요. 배송 주소 오류로 보류되어 확인 부탁드립니다. 받는 분 성함이 어떻게 되시나요?",
		Tone:        "배송/보류/주소 오류 안내 톤. 짧고 단호하게.",
	},
	"police": {
		Key:         "police",
		Type:        "검찰 사칭",
		Description: "명의 도용 사건에 연루되었다며 수사 협조를 요구함",
		Goal:        "개인정보 제공 및 자산 보호 명목 송금",
		First:       "서울중앙검찰청입니다. 귀하의 명의로 사건 연루 정황이 확인되어 연락드렸습니다. 성함 확인 가능하십니까?",
		Tone:        "검찰/사건 연루/절차 안내 톤. 권위적이고 압박.",
	},
	"insurance": {
		Key:         "insurance",
		Type:        "보험사 사칭",
		Description: "기존 보험의 만료나 환급을 이유로 개인정보 요청",
		Goal:        "계좌, 주민번호 등의 개인정보 획득",
		First:       "안녕하세요. 고객님 보험 관련 안내입니다. 만기/환급 관련 확인이 필요해서 연락드렸는데 잠시 괜찮으실까요?",
		Tone:        "만기/환급/갱신 안내 톤. 친절하지만 절차 강조.",
	},
	"family": {
		Key:         "family",
		Type:        "가족 사칭",
		Description: "가족을 사칭하여 핸드폰이 고장났다며 돈을 빌려달라는 등의 요청을 함",
		Goal:        "사용자로의 송금 유도",
		First:       "엄마(아빠), 나 폰이 고장나서 친구폰으로 연락했어요",
		Tone:        "친근/존댓말. 핸드폰이 고장났다는 설정 유지",
	},
	"romance": {
		Key:         "romance",
		Type:        "로맨스 스캠",
		Description: "사용자에게 연인으로 접근하여 가정에 일이 생겨 돈을 빌려달라고 요구",
		Goal:        "사용자로의 송금 유도, 외부 메신저로의 이동",
		First:       "오늘은 좀 생각나서... 잠깐 얘기할 수 있어?",
		Tone:        "감정적 접근. 동정심 유발 후 요구로 연결.",
	},
}

// ScenarioKeyByType maps the stored Korean scenario type back to its key.
var ScenarioKeyByType = func() map[string]string {
	m := make(map[string]string, len(Scenarios))
	for key, s := range Scenarios {
		m[s.Type] = key
	}
	return m
}()

// EvaluationRecord is the JSON envelope of a per-message evaluation stored
// as a system message in the room log.
type EvaluationRecord struct {
	Evaluation *Evaluation `json:"evaluation"`
}

// FinalRecord is the JSON envelope of a session's final report stored as a
// system message when the room is ended.
type FinalRecord struct {
	FinalEvaluation *FinalEvaluation `json:"final_evaluation"`
}

// FinalEvaluation is the persisted summary of a finished session.
type FinalEvaluation struct {
	Scenario     string     `json:"scenario"`
	DisplayScore int        `json:"totalScore"`
	Grade        Grade      `json:"grade"`
	TopEvents    []TopEvent `json:"topEvents"`
	GeneratedAt  time.Time  `json:"generatedAt"`
}
