package pipeline

import (
	"strings"

	"github.com/sells-group/registry-etl/internal/model"
)

// DefaultHQCountry is stamped on records missing a country; every source in
// scope is a Singapore registry.
const DefaultHQCountry = "Singapore"

// urlFields lists the record fields normalized as URLs.
func urlFields(rec *model.Record) []*string {
	return []*string{&rec.Website, &rec.Linkedin, &rec.Facebook, &rec.Instagram}
}

// CleanRecord canonicalizes one record's field formats: trimmed strings,
// upper-case UEN, https-prefixed URLs, and the default HQ country.
func CleanRecord(rec model.Record) model.Record {
	out := rec.Clone()

	out.UEN = strings.ToUpper(strings.TrimSpace(out.UEN))
	out.CompanyName = strings.TrimSpace(out.CompanyName)
	out.Industry = strings.TrimSpace(out.Industry)
	out.ContactEmail = strings.TrimSpace(out.ContactEmail)
	out.ContactPhone = strings.TrimSpace(out.ContactPhone)

	for _, f := range urlFields(&out) {
		*f = normalizeURL(*f)
	}

	if out.HQCountry == "" {
		out.HQCountry = DefaultHQCountry
	}
	return out
}

// Clean applies CleanRecord across a slice, preserving order.
func Clean(records []model.Record) []model.Record {
	out := make([]model.Record, len(records))
	for i, rec := range records {
		out[i] = CleanRecord(rec)
	}
	return out
}

func normalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}
	return s
}
