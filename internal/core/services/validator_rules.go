package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// Heuristic limits for fabricated values.
const (
	maxTitleRunes  = 50
	maxHymnNumber  = 700
	maxBookChapter = 150
)

var (
	chapterPattern     = regexp.MustCompile(`(\d{1,4})\s*(장|:)`)
	hymnNumberPattern  = regexp.MustCompile(`\d+`)
	placeholderPattern = regexp.MustCompile(`(?i)^(o{3}|x{3}|ㅇ{3}|○{3}|◯{3}|담당자|미정|홍길동)(\s*(목사|장로|집사|권사|전도사)(님)?)?$`)
)

// genericTitles are one-word sermon titles the recognizer invents when
// the real title is unreadable.
var genericTitles = map[string]bool{
	"설교": true, "말씀": true, "제목": true, "설교제목": true, "주일설교": true,
	"sermon": true, "title": true, "message": true,
}

// summaryPhrases betray generated text rather than transcribed text.
var summaryPhrases = []string{"정리하자면", "요약하면", "다시 말해", "in summary", "to summarize"}

// heuristicIssue returns why a field value looks fabricated, or "".
func heuristicIssue(field, value string) string {
	key := tokenKey(value)
	switch field {
	case domain.FieldSermonTitle:
		if genericTitles[key] {
			return "generic sermon title"
		}
	case domain.FieldScripture:
		for _, m := range chapterPattern.FindAllStringSubmatch(value, -1) {
			if n, err := strconv.Atoi(m[1]); err == nil && n > maxBookChapter {
				return "chapter number " + m[1] + " does not exist"
			}
		}
	case domain.FieldHymn:
		if m := hymnNumberPattern.FindString(value); m != "" {
			if n, err := strconv.Atoi(m); err == nil && n > maxHymnNumber {
				return "hymn number " + m + " out of range"
			}
		}
	}

	if field == domain.FieldTitle || field == domain.FieldSermonTitle {
		if runeLen(value) >= maxTitleRunes {
			return "title too long to be printed"
		}
	}
	if domain.PersonFields[field] || field == domain.FieldCandidateName || field == domain.FieldSeniorPastor {
		if placeholderPattern.MatchString(strings.TrimSpace(value)) {
			return "placeholder name"
		}
	}
	if phrase := summaryPhrase(value); phrase != "" {
		return "summarising phrase " + strconv.Quote(phrase)
	}
	return ""
}

func summaryPhrase(value string) string {
	lower := strings.ToLower(value)
	for _, p := range summaryPhrases {
		if strings.Contains(lower, p) {
			return p
		}
	}
	return ""
}

// titleStopWords are label words that say nothing about a body's topic.
var titleStopWords = func() map[string]bool {
	stop := map[string]bool{
		"안내": true, "순서": true, "오늘": true, "이번": true, "주일": true, "주간": true,
		"우리": true, "함께": true, "관련": true, "and": true, "the": true, "for": true, "of": true,
	}
	for _, sk := range sectionKeywords {
		stop[sk.keyword] = true
	}
	for label := range labelFields {
		stop[label] = true
	}
	return stop
}()

// stripPhrase removes every case-insensitive occurrence of phrase,
// dropping lines left empty.
func stripPhrase(value, phrase string) string {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	re, err := regexp.Compile(`(?i)` + strings.Join(words, `\s+`))
	if err != nil {
		return value
	}
	var out []string
	for _, line := range strings.Split(value, "\n") {
		if l := strings.Join(strings.Fields(re.ReplaceAllString(line, " ")), " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
