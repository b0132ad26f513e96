package report

import (
	"fmt"
	"math"
	"time"

	"github.com/opensource-safety/decoy/internal/domain"
)

// GradeFor maps the aggregate score to a risk tier. Thresholds are
// inclusive: 0.8 and above is HIGH, 0.3 and above is MEDIUM.
func GradeFor(totalScore float64) domain.Grade {
	switch {
	case totalScore >= 0.8:
		return domain.Grade{Level: domain.GradeHigh, Label: "위험", Emoji: "🚨"}
	case totalScore >= 0.3:
		return domain.Grade{Level: domain.GradeMedium, Label: "주의", Emoji: "⚠️"}
	default:
		return domain.Grade{Level: domain.GradeLow, Label: "양호", Emoji: "✅"}
	}
}

// DisplayScore converts the risk score to a 0..100 user-facing score where
// higher is safer. Negative (protective) totals clamp to a full score.
func DisplayScore(totalScore float64) int {
	risk := math.Max(0, totalScore)
	return int(math.Max(0, 100-math.Round(risk*100)))
}

// Behavior categories used to pick feedback sentences.
var (
	personalInfoEvents = []string{
		"name_provided",
		"phone_partial_provided",
		"phone_info_provided",
		"address_provided",
		"rrn_provided",
		"account_provided",
		"typed_personal_information",
	}
	officialCheckEvents = []string{
		"mentioned_checking_official_app_or_website",
		"stated_calling_official_customer_service",
	}
	refusalEvents = []string{
		"refused_to_provide_personal_information",
		"refused_app_install_or_remote_control",
	}
	stopEvents = []string{
		"explicitly_ended_conversation",
		"conversation_stopped_or_blocked",
		"blocked_or_reported_sender",
	}
	awarenessEvents = []string{
		"warned_about_link_risk",
		"explicitly_called_out_scam",
	}
	safeQuestionEvents = []string{
		"asked_for_sender_or_order_details",
		"asked_for_case_number_or_department",
		"requested_face_to_face_or_office_visit",
	}
	riskTriggerEvents = []string{
		"clicked_link",
		"verification_link_or_process_accepted",
		"accepted_link_or_app_install",
	}
)

var scenarioTips = map[string][]string{
	"delivery": {
		"택배/배송 문제는 송장번호를 공식 택배사 앱/홈페이지에서만 조회하세요.",
		"'보관료 발생', '추가 비용 결제' 요구는 거의 사기입니다.",
		"이름, 주소를 묻는 택배사는 정상적인 절차가 아닙니다. 정상 택배사는 대부분 송장 번호를 먼저 제시합니다.",
	},
	"police": {
		"정부 기관은 문자나 SNS로 공문서를 결코 보내지 않습니다.",
		"'외부 유출 방지'라며 비밀 유지 요구는 사기 패턴입니다. 또한, 신분증 사진 제출 요구는 매우 위험합니다.",
		"공식 기관은 문자메시지에 인증마크가 있습니다.",
	},
	"insurance": {
		"보험사는 주민번호 전체를 요구하지 않고, 환급/만료 안내인데 보험 상품명·가입 시기를 정확히 말 못 하면 의심하세요.",
		"보험사는 계좌 변경을 전화로만 처리하지 않고, 관련 업무는 공식 앱 또는 고객센터 직접 접속이 원칙입니다.",
		"문자 링크로 보험금 조회·환급 신청을 유도하면 위험합니다.",
	},
	"family": {
		"평소에 가족간의 '확인용 암호'를 미리 정해두면 좋습니다.",
		"말투, 이모지, 호칭이 평소와 조금이라도 다르면 의심하세요.",
		"소액부터 요청하는 것도 심리적 장벽을 낮추는 전략입니다.",
	},
	"romance": {
		"해외 거주, 군인, 의사 설정은 매우 흔한 사기 클리셰이며, 짧은 시간 안에 감정적으로 가까워지면 경계하세요.",
		"영상통화를 계속 피하면 실제 인물이 아닐 가능성이 큽니다.",
		"금전 요청 전 '신뢰 테스트', '우리 미래', '믿음 테스트' 같은 말은 감정 압박 수법입니다.",
	},
}

var genericTips = []string{
	"의심 링크 클릭 금지.",
	"개인정보 제공 금지.",
	"공식 채널로 역확인.",
}

var oneLiners = map[string]string{
	domain.GradeHigh:   "한 줄로 말하면: 지금 패턴이면 실제 사기에서도 털릴 확률 높습니다. 다음 판은 '공식 채널 역확인'부터 고정하세요.",
	domain.GradeMedium: "한 줄로 말하면: 방어는 했는데, 몇 번은 문이 열렸습니다. '링크/인증'만 끊으면 급상승합니다.",
	domain.GradeLow:    "한 줄로 말하면: 기본기는 좋습니다. '압박+링크+개인정보' 3종 세트만 계속 피하세요.",
}

// Input carries everything Build needs to assemble a session report.
type Input struct {
	RoomID       string
	ScenarioType string
	ScenarioKey  string
	Goal         string
	Stats        *domain.AggregateStats
	Now          time.Time
}

// Build assembles the final feedback report from aggregated statistics.
func Build(in Input) *domain.Report {
	grade := GradeFor(in.Stats.TotalScore)
	score := DisplayScore(in.Stats.TotalScore)

	didWell, improve := feedbackSentences(in.Stats.EventCounts)

	tips := scenarioTips[in.ScenarioKey]
	if tips == nil {
		tips = genericTips
	}

	return &domain.Report{
		RoomID:       in.RoomID,
		Scenario:     in.ScenarioType,
		Goal:         in.Goal,
		Grade:        grade,
		DisplayScore: score,
		TopEvents:    in.Stats.TopEvents,
		Summary:      fmt.Sprintf("%s 최종 평가: %s(%s) / 총점: %d", grade.Emoji, grade.Label, grade.Level, score),
		OneLiner:     oneLiners[grade.Level],
		DidWell:      didWell,
		Improve:      improve,
		Tips:         tips,
		GeneratedAt:  in.Now,
	}
}

func feedbackSentences(counts map[string]int) (didWell, improve []string) {
	has := func(events []string) bool {
		for _, e := range events {
			if counts[e] > 0 {
				return true
			}
		}
		return false
	}

	if has(officialCheckEvents) {
		didWell = append(didWell, "공식 채널(앱/홈페이지/대표번호/고객센터)로 확인하려 한 점이 좋았습니다.")
	}
	if has(refusalEvents) {
		didWell = append(didWell, "개인정보 제공이나 앱 설치·원격제어 요청을 거절한 대응이 매우 적절했습니다.")
	}
	if has(stopEvents) {
		didWell = append(didWell, "대화를 종료하거나 차단/신고한 선택은 피해를 크게 줄였습니다.")
	}
	if has(awarenessEvents) {
		didWell = append(didWell, "피싱/사기 가능성을 먼저 짚은 판단이 좋았습니다.")
	}
	if has(safeQuestionEvents) {
		didWell = append(didWell, "발송인/주문/사건번호 등 구체 정보를 요구한 건 상대를 압박하고 검증에 도움 됩니다.")
	}

	if has(personalInfoEvents) {
		improve = append(improve, "이름·전화번호·주소·계좌 등 개인정보가 제공되었습니다. 이런 정보는 조합되는 순간 본인확인에 바로 악용됩니다.")
	}
	if has(riskTriggerEvents) {
		improve = append(improve, "링크 클릭/인증 진행/앱 설치는 가장 위험한 행동입니다.")
	}
	if counts["responded_to_money_or_investment_request"] > 0 {
		improve = append(improve, "금전 요구에 반응하는 순간 사기 성공 확률이 급상승합니다. 즉시 대화를 종료해야 합니다.")
	}

	if len(didWell) == 0 {
		didWell = append(didWell, "뚜렷한 방어 행동은 감지되지 않았습니다. 다음엔 공식 채널 확인/거절/차단 같은 액션을 넣어보세요.")
	}
	if len(improve) == 0 {
		improve = append(improve, "치명적인 실수는 감지되지 않았습니다. 그래도 의심 상황에서는 더 빠르게 대화를 종료하는 게 안전합니다.")
	}

	return didWell, improve
}
