package match

import (
	"strconv"
	"strings"

	"github.com/sells-group/registry-etl/internal/model"
)

// Merge folds an incoming duplicate into a canonical record and returns the
// combined record. Neither input is mutated. Field handling:
//
//   - overwrite-if-better: identifier and detail fields take the incoming
//     value only when it is present and longer than the canonical value,
//     so an established value is never cleared or shortened
//   - combinable: delimited token lists are unioned, case-insensitively
//     deduplicated, first-seen order preserved
//   - fill-only: set once, never replaced
//   - provenance: source tags accumulate in order without duplicates
//   - the extraction timestamp always takes the incoming value
func Merge(canonical, incoming model.Record) model.Record {
	out := canonical.Clone()

	out.UEN = betterString(out.UEN, incoming.UEN)
	out.CompanyName = betterString(out.CompanyName, incoming.CompanyName)
	out.Website = betterString(out.Website, incoming.Website)
	out.Industry = betterString(out.Industry, incoming.Industry)
	out.ContactEmail = betterString(out.ContactEmail, incoming.ContactEmail)
	out.ContactPhone = betterString(out.ContactPhone, incoming.ContactPhone)
	out.NumberOfEmployees = betterInt(out.NumberOfEmployees, incoming.NumberOfEmployees)

	out.ProductsOffered = combineTokens(out.ProductsOffered, incoming.ProductsOffered)
	out.ServicesOffered = combineTokens(out.ServicesOffered, incoming.ServicesOffered)
	out.Keywords = combineTokens(out.Keywords, incoming.Keywords)

	out.Linkedin = fillOnly(out.Linkedin, incoming.Linkedin)
	out.Facebook = fillOnly(out.Facebook, incoming.Facebook)
	out.Instagram = fillOnly(out.Instagram, incoming.Instagram)
	out.HQCountry = fillOnly(out.HQCountry, incoming.HQCountry)
	out.CompanySize = fillOnly(out.CompanySize, incoming.CompanySize)
	out.Revenue = fillOnly(out.Revenue, incoming.Revenue)
	if out.FoundingYear == nil && incoming.FoundingYear != nil {
		y := *incoming.FoundingYear
		out.FoundingYear = &y
	}

	out.SourceOfData = combineSources(out.SourceOfData, incoming.SourceOfData)

	if incoming.ExtractionTimestamp != "" {
		out.ExtractionTimestamp = incoming.ExtractionTimestamp
	}

	return out
}

// betterString keeps existing unless candidate is present and strictly longer.
// Ties keep the first-seen value.
func betterString(existing, candidate string) string {
	if candidate == "" {
		return existing
	}
	if existing == "" || len(candidate) > len(existing) {
		return candidate
	}
	return existing
}

func betterInt(existing, candidate *int) *int {
	if candidate == nil {
		return existing
	}
	if existing == nil || len(strconv.Itoa(*candidate)) > len(strconv.Itoa(*existing)) {
		n := *candidate
		return &n
	}
	return existing
}

func fillOnly(existing, candidate string) string {
	if existing != "" {
		return existing
	}
	return candidate
}

// combineTokens unions two delimited token lists. Tokens split on commas,
// semicolons, and pipes; comparison is case-insensitive on trimmed tokens.
func combineTokens(existing, incoming string) string {
	merged := make([]string, 0, 8)
	seen := make(map[string]struct{})
	for _, raw := range []string{existing, incoming} {
		for _, tok := range splitTokens(raw) {
			key := strings.ToLower(tok)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, tok)
		}
	}
	return strings.Join(merged, ", ")
}

// combineSources accumulates comma-separated provenance tags with exact,
// case-sensitive dedup so distinct source spellings stay distinguishable.
func combineSources(existing, incoming string) string {
	merged := make([]string, 0, 4)
	seen := make(map[string]struct{})
	for _, raw := range []string{existing, incoming} {
		for _, tag := range strings.Split(raw, ",") {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			merged = append(merged, tag)
		}
	}
	return strings.Join(merged, ", ")
}

func splitTokens(raw string) []string {
	out := make([]string, 0, 8)
	for _, tok := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	}) {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
