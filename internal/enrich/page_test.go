package enrich

import (
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
<meta name="description" content="Catering and event services for offices across Singapore">
<style>body { color: red; }</style>
<script>var tracking = "noise noise noise";</script>
</head>
<body>
<p>Founded in 1987, established 1995, we have grown to 120 employees.</p>
<p>Email us at noreply@acme.sg or sales@acme.sg, call +65 91234567.</p>
<a href="https://www.linkedin.com/company/acme-widgets">LinkedIn</a>
<a href="https://facebook.com/sharer/share.php">Share</a>
<a href="https://facebook.com/acmewidgets">Facebook</a>
<a href="https://instagram.com/acmewidgets">Instagram</a>
<p>catering catering catering events events weddings</p>
</body>
</html>`

func TestExtractPageFields(t *testing.T) {
	rec := ExtractPageFields(samplePage)

	if rec.ContactEmail != "sales@acme.sg" {
		t.Errorf("email = %q, want sales@acme.sg (noreply filtered)", rec.ContactEmail)
	}
	if rec.ContactPhone != "+65 91234567" {
		t.Errorf("phone = %q", rec.ContactPhone)
	}
	if !strings.Contains(rec.Linkedin, "linkedin.com/company/acme-widgets") {
		t.Errorf("linkedin = %q", rec.Linkedin)
	}
	if !strings.Contains(rec.Facebook, "facebook.com/acmewidgets") {
		t.Errorf("facebook = %q (sharer link must be skipped)", rec.Facebook)
	}
	if !strings.Contains(rec.Instagram, "instagram.com/acmewidgets") {
		t.Errorf("instagram = %q", rec.Instagram)
	}
	if rec.ServicesOffered != "Catering and event services for offices across Singapore" {
		t.Errorf("services = %q", rec.ServicesOffered)
	}
	if rec.FoundingYear == nil || *rec.FoundingYear != 1987 {
		t.Errorf("founding year = %v, want earliest plausible 1987", rec.FoundingYear)
	}
	if rec.NumberOfEmployees == nil || *rec.NumberOfEmployees != 120 {
		t.Errorf("employees = %v, want 120", rec.NumberOfEmployees)
	}
}

func TestExtractKeywordsFrequencyOrder(t *testing.T) {
	rec := ExtractPageFields(samplePage)
	kws := strings.Split(rec.Keywords, ", ")
	if len(kws) == 0 || kws[0] != "catering" {
		t.Errorf("keywords = %q, want catering first", rec.Keywords)
	}
	for _, kw := range kws {
		if kw == "noise" {
			t.Errorf("script content leaked into keywords: %q", rec.Keywords)
		}
	}
}

func TestExtractPageFieldsImplausibleValues(t *testing.T) {
	html := `<p>Established in 1849 and again since 2031. We have 500000 employees.</p>`
	rec := ExtractPageFields(html)

	if rec.FoundingYear != nil {
		t.Errorf("out-of-range founding years accepted: %v", *rec.FoundingYear)
	}
	if rec.NumberOfEmployees != nil {
		t.Errorf("out-of-range employee count accepted: %v", *rec.NumberOfEmployees)
	}
}

func TestExtractPageFieldsEmpty(t *testing.T) {
	rec := ExtractPageFields("")
	if rec.ContactEmail != "" || rec.ContactPhone != "" || rec.Keywords != "" {
		t.Errorf("empty page produced fields: %+v", rec)
	}
}
