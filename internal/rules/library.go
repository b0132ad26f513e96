package rules

import (
	"regexp"
	"strings"
)

// keywordLibrary maps events to curated Korean keyword lists. Keywords are
// normalized at compile time and matched by containment against the
// normalized message, so "사는 곳" also matches "사는곳".
var keywordLibrary = map[string][]string{
	"name_provided":          {"이름은", "성함은", "제 이름", "제이름"},
	"address_provided":       {"주소", "배송지", "사는 곳", "사는곳"},
	"phone_partial_provided": {"전화번호", "연락처", "010", "011", "016", "017", "018", "019"},
	"phone_info_provided":    {"전화번호", "연락처", "010", "011", "016", "017", "018", "019"},

	"clicked_link":                          {"클릭", "눌렀", "접속", "들어갔", "열었", "링크"},
	"typed_personal_information":            {"입력", "작성", "기입", "적었"},
	"verification_link_or_process_accepted": {"인증", "확인했", "진행", "설치", "동의", "완료"},

	"mentioned_checking_official_app_or_website": {"공식 앱", "공식앱", "홈페이지", "공식 사이트", "공식사이트"},
	"stated_calling_official_customer_service":   {"고객센터", "대표번호", "전화하겠", "전화해볼", "콜센터"},

	"asked_for_sender_or_order_details":      {"어떤 상품", "무슨 상품", "발송인", "주문", "주문내역", "운송장", "송장번호"},
	"asked_for_case_number_or_department":    {"사건번호", "접수번호", "담당부서", "부서명", "담당자"},
	"requested_face_to_face_or_office_visit": {"직접 방문", "방문하겠", "대면", "가겠습니다", "가볼게요"},

	"refused_to_provide_personal_information": {"거절", "제공 못", "안 알려", "못 알려", "말 못"},
	"explicitly_ended_conversation":           {"그만", "종료", "끊", "차단"},
	"conversation_stopped_or_blocked":         {"차단", "신고", "대화 중단", "끊었"},
	"blocked_or_reported_sender":              {"차단", "신고"},

	"warned_about_link_risk":    {"링크 위험", "수상", "피싱", "사기"},
	"explicitly_called_out_scam": {"사기", "피싱", "보이스피싱", "스캠"},

	"responded_to_money_or_investment_request": {"송금", "이체", "돈 보내", "입금", "계좌"},

	"accepted_link_or_app_install":         {"설치", "앱", "다운로드", "원격"},
	"refused_app_install_or_remote_control": {"설치 안", "설치 못", "원격 안", "원격 못", "거절"},
}

// patternLibrary maps events to regexes run against the raw message, so URL
// schemes and digit groupings survive normalization.
var patternLibrary = map[string]*regexp.Regexp{
	"rrn_provided":     regexp.MustCompile(`\b\d{6}-?\d{7}\b`),
	"account_provided": regexp.MustCompile(`\b\d{2,4}-\d{2,6}-\d{2,6}\b|\b\d{9,16}\b`),

	"phone_partial_provided": regexp.MustCompile(`01[016789]\s*-?\s*\d{3,4}\s*-?\s*\d{4}`),

	"clicked_link": regexp.MustCompile(`(https?://|www\.)|(클릭|눌렀|접속|들어갔|열었|링크)`),

	"responded_to_money_or_investment_request": regexp.MustCompile(`(송금|이체|입금|돈\s*보내|계좌)`),

	"explicitly_ended_conversation": regexp.MustCompile(`(그만|종료|끊|차단)`),

	"mentioned_checking_official_app_or_website": regexp.MustCompile(`(공식\s*(앱|홈페이지|사이트)|대표번호)`),

	"explicitly_called_out_scam": regexp.MustCompile(`(사기|피싱|보이스피싱|스캠)`),
}

var (
	rrnRaw       = patternLibrary["rrn_provided"]
	rrn13        = regexp.MustCompile(`\b\d{13}\b`)
	acctContext  = regexp.MustCompile(`(계좌|은행|입금|송금)`)
	acctDigits   = regexp.MustCompile(`\b\d{9,16}\b`)
	acctDashed   = regexp.MustCompile(`\b\d{2,4}-\d{2,6}-\d{2,6}\b`)
	phoneCompact = regexp.MustCompile(`01[016789]\d{7,8}`)
)

// predicateLibrary maps events to multi-condition checks that see both the
// raw and normalized forms of the message.
var predicateLibrary = map[string]func(raw, normalized string) bool{
	// Any concrete personal identifier counts: resident registration number,
	// bank account (with or without dashes), or a mobile number.
	"typed_personal_information": func(raw, normalized string) bool {
		if rrnRaw.MatchString(raw) || rrn13.MatchString(normalized) {
			return true
		}
		if acctContext.MatchString(raw) && acctDigits.MatchString(normalized) {
			return true
		}
		if acctDashed.MatchString(raw) {
			return true
		}
		return phoneCompact.MatchString(normalized)
	},
}

// heuristicKeywords guesses a keyword list from fragments of the event name.
// Last-resort tier; the engine logs any event resolved this way.
func heuristicKeywords(event string) []string {
	e := strings.ToLower(event)
	switch {
	case strings.Contains(e, "link"):
		return []string{"링크", "url", "클릭", "눌렀", "접속"}
	case strings.Contains(e, "phone"):
		return []string{"전화", "연락처", "010"}
	case strings.Contains(e, "address"):
		return []string{"주소", "배송지"}
	case strings.Contains(e, "money"), strings.Contains(e, "account"):
		return []string{"송금", "이체", "계좌", "입금", "돈"}
	case strings.Contains(e, "official"), strings.Contains(e, "callcenter"), strings.Contains(e, "customer"):
		return []string{"공식", "홈페이지", "고객센터", "대표번호"}
	case strings.Contains(e, "refuse"), strings.Contains(e, "denied"):
		return []string{"거절", "못", "안"}
	case strings.Contains(e, "ended"), strings.Contains(e, "blocked"), strings.Contains(e, "stopped"):
		return []string{"종료", "그만", "차단", "신고", "끊"}
	case strings.Contains(e, "case"), strings.Contains(e, "department"), strings.Contains(e, "document"):
		return []string{"사건", "부서", "공문"}
	case strings.Contains(e, "video"):
		return []string{"영상통화", "비디오"}
	}
	return nil
}
