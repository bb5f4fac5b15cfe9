package classify

import (
	"regexp"
	"strings"
)

// MaxKeywords caps the keyword list length.
const MaxKeywords = 10

// keyword extraction skips generic English plus boilerplate found in almost
// every Singapore company profile.
var keywordStopwords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "from": {}, "up": {},
	"about": {}, "into": {}, "through": {}, "during": {}, "before": {},
	"after": {}, "above": {}, "below": {}, "between": {}, "among": {},
	"our": {}, "we": {}, "us": {}, "you": {}, "your": {}, "they": {},
	"their": {}, "company": {}, "ltd": {}, "pte": {}, "singapore": {},
	"services": {}, "solutions": {}, "group": {}, "holdings": {},
	"international": {}, "private": {}, "limited": {},
}

var keywordWordRe = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)

// ExtractKeywords returns up to max distinct meaningful words from text, in
// first-occurrence order, joined with ", ". Text shorter than 10 characters
// yields nothing.
func ExtractKeywords(text string, max int) string {
	if len(strings.TrimSpace(text)) < 10 {
		return ""
	}
	if max <= 0 {
		max = MaxKeywords
	}

	seen := make(map[string]struct{})
	keywords := make([]string, 0, max)
	for _, word := range keywordWordRe.FindAllString(strings.ToLower(text), -1) {
		if _, stop := keywordStopwords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
		if len(keywords) == max {
			break
		}
	}
	return strings.Join(keywords, ", ")
}
