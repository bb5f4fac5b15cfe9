// Package match implements entity resolution for company records: name
// normalization, similarity scoring, duplicate detection, and record merging.
package match

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// legalSuffixes are trailing corporate designators stripped during name
// normalization. Order matters: longer forms come before their substrings so
// "pte ltd" wins over "ltd". Only one trailing suffix is removed per name.
var legalSuffixes = []string{
	"pte ltd",
	"pte. ltd.",
	"private limited",
	"limited",
	"ltd",
	"incorporated",
	"inc",
	"corporation",
	"corp",
	"llc",
	"llp",
	"sdn bhd",
	"co",
}

// nonWord matches runs of anything that is not a letter or digit. The class is
// unicode-aware: registry exports carry CJK and accented names, and those must
// survive normalization or the fuzzy pass can never match them.
var nonWord = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// NormalizeName canonicalizes a company name for comparison: unicode NFKC
// folding, lower-casing, trimming, removal of one trailing legal suffix, then
// replacing non-letter/digit runs with single spaces.
func NormalizeName(name string) string {
	s := norm.NFKC.String(name)
	s = strings.ToLower(strings.TrimSpace(s))

	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(s, " "+suffix) {
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}

	s = nonWord.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
