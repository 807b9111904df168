package services

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var emphasisReplacer = strings.NewReplacer("**", "", "__", "", "~~", "", "`", "", "*", "")

// underscoreEmphasis matches a single-underscore span that opens and
// closes at whitespace or the string edge, so snake_case survives.
var underscoreEmphasis = regexp.MustCompile(`(^|\s)_([^_\s](?:[^_]*[^_\s])?)_(\s|$)`)

// cleanText strips markdown emphasis, folds full-width forms, applies NFC
// and collapses whitespace to single spaces.
func cleanText(s string) string {
	s = emphasisReplacer.Replace(s)
	s = stripUnderscoreEmphasis(s)
	s = width.Fold.String(s)
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// stripUnderscoreEmphasis removes _x_ markers. Adjacent spans share the
// whitespace between them, so it repeats until nothing matches.
func stripUnderscoreEmphasis(s string) string {
	for strings.Contains(s, "_") {
		next := underscoreEmphasis.ReplaceAllString(s, "$1$2$3")
		if next == s {
			break
		}
		s = next
	}
	return s
}

// cleanLines is cleanText applied per line, dropping blank lines.
func cleanLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if c := cleanText(line); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// tokenKey lower-cases and removes all whitespace, for header and
// label lookups.
func tokenKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

var wordSplit = regexp.MustCompile(`[\s\p{P}\p{S}]+`)

// particles are Korean postpositions stripped from keyword tails.
var particles = []string{"에서", "으로", "에게", "까지", "부터", "은", "는", "이", "가", "을", "를", "의", "에", "와", "과", "도", "로"}

// keywords returns the salient words of a label: at least two runes,
// trailing particles removed, stop words dropped.
func keywords(label string, stop map[string]bool) []string {
	var out []string
	seen := make(map[string]bool)
	for _, w := range wordSplit.Split(strings.ToLower(label), -1) {
		w = stripParticle(w)
		if runeLen(w) < 2 || stop[w] || seen[w] {
			continue
		}
		if isDigits(w) {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func stripParticle(w string) string {
	for _, p := range particles {
		if strings.HasSuffix(w, p) && runeLen(w)-runeLen(p) >= 2 {
			return strings.TrimSuffix(w, p)
		}
	}
	return w
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
