package news

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxKeywords = 5

// stopwords are filler and market-jargon terms that carry no search signal
// when they appear in a market question.
var stopwords = map[string]struct{}{
	"will": {}, "the": {}, "be": {}, "to": {}, "of": {}, "and": {}, "a": {},
	"in": {}, "that": {}, "is": {}, "for": {}, "on": {}, "with": {}, "as": {},
	"at": {}, "by": {}, "this": {}, "from": {}, "or": {}, "an": {}, "are": {},
	"was": {}, "were": {}, "been": {}, "being": {}, "have": {}, "has": {},
	"had": {}, "do": {}, "does": {}, "did": {}, "but": {}, "if": {},
	"then": {}, "than": {}, "so": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "why": {}, "how": {}, "yes": {}, "no": {},
	"win": {}, "happen": {}, "before": {}, "after": {}, "during": {},
	"into": {}, "through": {}, "about": {}, "more": {}, "any": {},
	"some": {}, "most": {}, "over": {}, "under": {}, "again": {},
	"further": {}, "once": {}, "2024": {}, "2025": {}, "2026": {},
	"end": {}, "next": {}, "first": {}, "second": {}, "third": {},
	"reach": {}, "hit": {}, "price": {}, "market": {}, "polymarket": {},
	"bet": {}, "predict": {}, "above": {}, "below": {}, "between": {},
	"approve": {}, "confirm": {}, "announce": {}, "launch": {},
}

// punctuation matches everything except word characters, whitespace and
// hyphens, so hyphenated terms survive cleanup intact.
var punctuation = regexp.MustCompile(`[^\w\s-]`)

// ExtractKeywords reduces a market question to a news search query: strips
// punctuation, drops stopwords, short words and bare numbers, dedupes
// case-insensitively and joins the first keywords with " AND ". Words that
// start with an uppercase letter keep their capitalization, everything else
// is lowercased.
func ExtractKeywords(question string) string {
	cleaned := punctuation.ReplaceAllString(question, "")

	var keywords []string
	seen := make(map[string]struct{})

	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 2 || allDigits(word) {
			continue
		}
		if _, stop := stopwords[strings.ToLower(word)]; stop {
			continue
		}

		first, _ := utf8.DecodeRuneInString(word)
		if !unicode.IsUpper(first) {
			word = strings.ToLower(word)
		}

		key := strings.ToLower(word)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		keywords = append(keywords, word)
		if len(keywords) == maxKeywords {
			break
		}
	}

	return strings.Join(keywords, " AND ")
}

// URLHash returns a stable 32-character identifier for an article URL, used
// for dedupe across refresh cycles.
func URLHash(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:32]
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}
