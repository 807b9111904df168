package domain

const unknownDescription = "Unknown"

// DocumentType identifies the family a document belongs to.
// It selects required fields, canonical section order and theme.
type DocumentType string

// Supported document types.
const (
	// DocumentTypeChurch is a weekly church bulletin.
	DocumentTypeChurch DocumentType = "church_bulletin"

	// DocumentTypeElection is a candidate election flyer.
	DocumentTypeElection DocumentType = "election_flyer"

	// DocumentTypeNewsletter is a general periodic newsletter.
	DocumentTypeNewsletter DocumentType = "newsletter"

	// DocumentTypeUnknown is used when no type could be inferred.
	DocumentTypeUnknown DocumentType = "unknown"
)

// AllDocumentTypes returns the recognised types, excluding unknown.
func AllDocumentTypes() []DocumentType {
	return []DocumentType{DocumentTypeChurch, DocumentTypeElection, DocumentTypeNewsletter}
}

// IsValid returns true if the document type is recognised.
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeChurch, DocumentTypeElection, DocumentTypeNewsletter, DocumentTypeUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t DocumentType) String() string {
	return string(t)
}

// Description returns a human-readable description of the type.
func (t DocumentType) Description() string {
	switch t {
	case DocumentTypeChurch:
		return "Church bulletin"
	case DocumentTypeElection:
		return "Election flyer"
	case DocumentTypeNewsletter:
		return "Newsletter"
	default:
		return unknownDescription
	}
}

// Canonical section identifiers.
const (
	SectionInfo          = "info"
	SectionVerse         = "verse"
	SectionWorship       = "worship"
	SectionSermon        = "sermon"
	SectionChoir         = "choir"
	SectionDevotional    = "devotional"
	SectionNews          = "news"
	SectionAnnouncements = "announcements"
	SectionProfile       = "profile"
	SectionPledges       = "pledges"
	SectionCareer        = "career"
	SectionVision        = "vision"
	SectionSummary       = "summary"
	SectionEvents        = "events"
	SectionContact       = "contact"
	SectionBody          = "body"
)

// CanonicalSections returns the order sections must appear in.
// Section IDs not listed are free to appear anywhere.
func (t DocumentType) CanonicalSections() []string {
	switch t {
	case DocumentTypeChurch:
		return []string{
			SectionInfo, SectionVerse, SectionWorship, SectionSermon, SectionChoir,
			SectionDevotional, SectionNews, SectionAnnouncements, SectionContact,
		}
	case DocumentTypeElection:
		return []string{SectionProfile, SectionPledges, SectionCareer, SectionVision, SectionContact}
	case DocumentTypeNewsletter:
		return []string{SectionSummary, SectionNews, SectionEvents, SectionAnnouncements, SectionContact}
	default:
		return nil
	}
}

// RequiredFields returns the singleton fields every document of the type needs.
func (t DocumentType) RequiredFields() []string {
	switch t {
	case DocumentTypeChurch:
		return []string{FieldTitle, FieldDate}
	case DocumentTypeElection:
		return []string{FieldTitle, FieldCandidateName}
	default:
		return []string{FieldTitle}
	}
}

// RequiredSections returns the sections every document of the type needs.
func (t DocumentType) RequiredSections() []string {
	switch t {
	case DocumentTypeChurch:
		return []string{SectionWorship}
	case DocumentTypeElection:
		return []string{SectionPledges}
	default:
		return nil
	}
}

// SafeDefault returns a neutral replacement value for a field, if one exists.
func (t DocumentType) SafeDefault(field string) (string, bool) {
	if field != FieldTitle {
		return "", false
	}
	switch t {
	case DocumentTypeChurch:
		return "주보", true
	case DocumentTypeElection:
		return "선거 공보", true
	case DocumentTypeNewsletter:
		return "소식지", true
	default:
		return "", false
	}
}

// SectionPlaceholder is the body inserted for a missing required section.
const SectionPlaceholder = "추후 안내 예정입니다."

// SectionLabel returns the display heading used for placeholder sections.
func SectionLabel(id string) string {
	if label, ok := sectionLabels[id]; ok {
		return label
	}
	return id
}

var sectionLabels = map[string]string{
	SectionInfo:          "교회 정보",
	SectionVerse:         "오늘의 말씀",
	SectionWorship:       "예배 순서",
	SectionSermon:        "설교",
	SectionChoir:         "찬양대",
	SectionDevotional:    "오늘의 양식",
	SectionNews:          "소식",
	SectionAnnouncements: "광고",
	SectionProfile:       "후보자 소개",
	SectionPledges:       "공약",
	SectionCareer:        "경력",
	SectionVision:        "비전",
	SectionSummary:       "요약",
	SectionEvents:        "행사",
	SectionContact:       "연락처",
	SectionBody:          "본문",
}
