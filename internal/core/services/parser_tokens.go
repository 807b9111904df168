package services

import (
	"regexp"
	"sort"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// headerTokens maps header cell text (whitespace removed, lower case)
// to a field name.
var headerTokens = map[string]string{
	"구분": domain.FieldName, "예배": domain.FieldName, "예배명": domain.FieldName, "부": domain.FieldName,
	"항목": domain.FieldName, "service": domain.FieldName, "session": domain.FieldName, "name": domain.FieldName,
	"시간": domain.FieldTime, "time": domain.FieldTime, "일시": domain.FieldTime,
	"사회": domain.FieldPresider, "사회자": domain.FieldPresider, "인도": domain.FieldPresider,
	"presider": domain.FieldPresider, "leader": domain.FieldPresider,
	"성경봉독": domain.FieldScripture, "본문": domain.FieldScripture, "성경": domain.FieldScripture,
	"scripture": domain.FieldScripture,
	"대표기도": domain.FieldPrayer, "기도": domain.FieldPrayer, "prayer": domain.FieldPrayer,
	"헌금기도": domain.FieldOfferingPrayer,
	"찬송": domain.FieldHymn, "찬송가": domain.FieldHymn, "hymn": domain.FieldHymn,
	"설교제목": domain.FieldSermonTitle, "제목": domain.FieldSermonTitle, "설교": domain.FieldSermonTitle,
	"주제": domain.FieldSermonTitle, "topic": domain.FieldSermonTitle, "title": domain.FieldSermonTitle,
	"설교자": domain.FieldSermonPastor, "강사": domain.FieldSermonPastor, "speaker": domain.FieldSermonPastor,
	"presenter": domain.FieldSermonPastor, "preacher": domain.FieldSermonPastor,
	"찬양대": domain.FieldChoir, "성가대": domain.FieldChoir, "choir": domain.FieldChoir,
	"지휘": domain.FieldConductor, "지휘자": domain.FieldConductor, "conductor": domain.FieldConductor,
	"반주": domain.FieldAccompanist, "반주자": domain.FieldAccompanist, "accompanist": domain.FieldAccompanist,
	"찬양곡": domain.FieldSong, "곡명": domain.FieldSong, "찬양": domain.FieldSong, "song": domain.FieldSong,
}

// headerTokensByLength lists header tokens longest first so that
// "헌금기도" wins over "기도".
var headerTokensByLength = func() []string {
	tokens := make([]string, 0, len(headerTokens))
	for t := range headerTokens {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if runeLen(tokens[i]) != runeLen(tokens[j]) {
			return runeLen(tokens[i]) > runeLen(tokens[j])
		}
		return tokens[i] < tokens[j]
	})
	return tokens
}()

// positionalSchemas are the built-in column layouts keyed by column count.
var positionalSchemas = map[int][]string{
	3: {domain.FieldName, domain.FieldSermonTitle, domain.FieldSermonPastor},
	4: {domain.FieldName, domain.FieldChoir, domain.FieldSermonTitle, domain.FieldSermonPastor},
	5: {domain.FieldName, domain.FieldChoir, domain.FieldConductor, domain.FieldSong, domain.FieldAccompanist},
	6: {
		domain.FieldName, domain.FieldTime, domain.FieldPresider, domain.FieldScripture,
		domain.FieldPrayer, domain.FieldOfferingPrayer,
	},
	8: {
		domain.FieldName, domain.FieldTime, domain.FieldPresider, domain.FieldScripture,
		domain.FieldPrayer, domain.FieldOfferingPrayer, domain.FieldSermonTitle, domain.FieldSermonPastor,
	},
	9: {
		domain.FieldName, domain.FieldTime, domain.FieldPresider, domain.FieldScripture,
		domain.FieldPrayer, domain.FieldOfferingPrayer, domain.FieldHymn, domain.FieldSermonTitle,
		domain.FieldSermonPastor,
	},
}

// Content role patterns used by the override pass.
var (
	timePattern   = regexp.MustCompile(`(?i)^(오전|오후|am|pm)?\s*\d{1,2}\s*(:\s*\d{2}|시(\s*\d{1,2}\s*분)?)\s*(am|pm)?$`)
	hymnPattern   = regexp.MustCompile(`(?i)^((새)?찬송(가)?\s*)?\d{1,3}\s*장$|^hymn\s*#?\d{1,3}$`)
	clergyPattern = regexp.MustCompile(`(?i)(목사|전도사|강도사)(님)?$|^(rev\.?|pastor)\s`)
	choirPattern  = regexp.MustCompile(`(?i)(찬양대|성가대|choir)`)
	datePattern   = regexp.MustCompile(`\d{4}\s*[년./-]\s*\d{1,2}\s*[월./-]\s*\d{1,2}\s*일?`)
	labelPattern  = regexp.MustCompile(`^([^:：]{1,12}?)\s*[:：]\s*(.+)$`)
	headingMarker = regexp.MustCompile(`^(#{1,6}\s+|\[(.+)\]$|【(.+)】$)`)
	orderedItem   = regexp.MustCompile(`^\d{1,2}[.)]\s`)
)

// contentRole returns the field a cell's content implies, or "".
func contentRole(v string) string {
	switch {
	case timePattern.MatchString(v):
		return domain.FieldTime
	case hymnPattern.MatchString(v):
		return domain.FieldHymn
	case clergyPattern.MatchString(v):
		return domain.FieldSermonPastor
	case choirPattern.MatchString(v):
		return domain.FieldChoir
	default:
		return ""
	}
}

// labelFields maps free-text labels to singleton fields.
var labelFields = map[string]string{
	"교회명": domain.FieldChurchName, "교회": domain.FieldChurchName,
	"날짜": domain.FieldDate, "일자": domain.FieldDate, "date": domain.FieldDate,
	"표어": domain.FieldSlogan, "주제어": domain.FieldSlogan, "slogan": domain.FieldSlogan,
	"주소": domain.FieldAddress, "address": domain.FieldAddress,
	"전화": domain.FieldPhone, "전화번호": domain.FieldPhone, "연락처": domain.FieldPhone,
	"tel": domain.FieldPhone, "phone": domain.FieldPhone,
	"이메일": domain.FieldEmail, "email": domain.FieldEmail, "e-mail": domain.FieldEmail,
	"홈페이지": domain.FieldWebsite, "웹사이트": domain.FieldWebsite, "website": domain.FieldWebsite,
	"담임목사": domain.FieldSeniorPastor, "담임": domain.FieldSeniorPastor,
	"후보": domain.FieldCandidateName, "후보자": domain.FieldCandidateName, "후보자명": domain.FieldCandidateName,
	"candidate": domain.FieldCandidateName,
	"기호": domain.FieldCandidateNumber, "number": domain.FieldCandidateNumber,
	"정당": domain.FieldParty, "소속": domain.FieldParty, "party": domain.FieldParty,
	"제목": domain.FieldTitle, "title": domain.FieldTitle,
	"발행": domain.FieldPublisher, "발행인": domain.FieldPublisher, "발행처": domain.FieldPublisher,
	"publisher": domain.FieldPublisher,
}

// sectionKeywords maps heading keywords to canonical section IDs.
// Earlier entries win, so compound keywords come first.
var sectionKeywords = []struct {
	keyword string
	id      string
}{
	{"교회정보", domain.SectionInfo},
	{"교회소식", domain.SectionNews},
	{"오늘의말씀", domain.SectionVerse},
	{"오늘의양식", domain.SectionDevotional},
	{"예배순서", domain.SectionWorship},
	{"후보자소개", domain.SectionProfile},
	{"예배", domain.SectionWorship},
	{"설교", domain.SectionSermon},
	{"찬양대", domain.SectionChoir},
	{"성가대", domain.SectionChoir},
	{"말씀", domain.SectionVerse},
	{"성경", domain.SectionVerse},
	{"묵상", domain.SectionDevotional},
	{"양식", domain.SectionDevotional},
	{"광고", domain.SectionAnnouncements},
	{"공지", domain.SectionAnnouncements},
	{"알림", domain.SectionAnnouncements},
	{"소식", domain.SectionNews},
	{"news", domain.SectionNews},
	{"약력", domain.SectionProfile},
	{"프로필", domain.SectionProfile},
	{"profile", domain.SectionProfile},
	{"공약", domain.SectionPledges},
	{"pledge", domain.SectionPledges},
	{"경력", domain.SectionCareer},
	{"career", domain.SectionCareer},
	{"비전", domain.SectionVision},
	{"vision", domain.SectionVision},
	{"요약", domain.SectionSummary},
	{"summary", domain.SectionSummary},
	{"행사", domain.SectionEvents},
	{"일정", domain.SectionEvents},
	{"events", domain.SectionEvents},
	{"연락처", domain.SectionContact},
	{"문의", domain.SectionContact},
	{"contact", domain.SectionContact},
}

// typeKeywords vote for a document type.
var typeKeywords = []struct {
	docType  domain.DocumentType
	keywords []string
}{
	{domain.DocumentTypeChurch, []string{"교회", "예배", "설교", "목사", "찬양대", "주보", "성도", "헌금", "찬송"}},
	{domain.DocumentTypeElection, []string{"후보", "공약", "선거", "기호", "투표", "당선", "의원", "구청장", "시장"}},
	{domain.DocumentTypeNewsletter, []string{"소식지", "뉴스레터", "newsletter", "발행", "통권", "회원"}},
}
