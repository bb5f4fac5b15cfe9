// Package model defines the canonical record type and shared run types for
// the registry ETL pipeline.
package model

import "strings"

// Record is one source's view of a company. Every field is optional; numeric
// fields use pointers so "absent" and "zero" stay distinguishable. Records are
// value types: phases never mutate a record in place, they derive new ones.
type Record struct {
	// Identifiers
	UEN         string `json:"uen,omitempty" db:"uen"`
	CompanyName string `json:"company_name,omitempty" db:"company_name"`
	Website     string `json:"website,omitempty" db:"website"`

	// Location
	HQCountry string `json:"hq_country,omitempty" db:"hq_country"`

	// Social media
	Linkedin  string `json:"linkedin,omitempty" db:"linkedin"`
	Facebook  string `json:"facebook,omitempty" db:"facebook"`
	Instagram string `json:"instagram,omitempty" db:"instagram"`

	// Business
	Industry          string `json:"industry,omitempty" db:"industry"`
	NumberOfEmployees *int   `json:"number_of_employees,omitempty" db:"number_of_employees"`
	CompanySize       string `json:"company_size,omitempty" db:"company_size"`
	FoundingYear      *int   `json:"founding_year,omitempty" db:"founding_year"`
	Revenue           string `json:"revenue,omitempty" db:"revenue"`

	// Contact
	ContactEmail string `json:"contact_email,omitempty" db:"contact_email"`
	ContactPhone string `json:"contact_phone,omitempty" db:"contact_phone"`

	// Free-text token lists (comma/semicolon/pipe delimited)
	ProductsOffered string `json:"products_offered,omitempty" db:"products_offered"`
	ServicesOffered string `json:"services_offered,omitempty" db:"services_offered"`
	Keywords        string `json:"keywords,omitempty" db:"keywords"`

	// Provenance
	SourceOfData        string `json:"source_of_data,omitempty" db:"source_of_data"`
	ExtractionTimestamp string `json:"extraction_timestamp,omitempty" db:"extraction_timestamp"`
}

// Company size labels.
const (
	SizeSmall   = "Small"
	SizeMedium  = "Medium"
	SizeLarge   = "Large"
	SizeUnknown = "Unknown"
)

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	if r.NumberOfEmployees != nil {
		n := *r.NumberOfEmployees
		out.NumberOfEmployees = &n
	}
	if r.FoundingYear != nil {
		y := *r.FoundingYear
		out.FoundingYear = &y
	}
	return out
}

// Description joins the services and products text for classification input.
func (r Record) Description() string {
	parts := make([]string, 0, 2)
	if r.ServicesOffered != "" {
		parts = append(parts, r.ServicesOffered)
	}
	if r.ProductsOffered != "" {
		parts = append(parts, r.ProductsOffered)
	}
	return strings.Join(parts, " ")
}

// recordFieldCount is the number of scoreable fields in Record.
const recordFieldCount = 18

// CompletenessScore returns the percentage of populated fields, 0-100.
func (r Record) CompletenessScore() float64 {
	populated := 0
	for _, s := range []string{
		r.UEN, r.CompanyName, r.Website, r.HQCountry,
		r.Linkedin, r.Facebook, r.Instagram,
		r.Industry, r.CompanySize, r.Revenue,
		r.ContactEmail, r.ContactPhone,
		r.ProductsOffered, r.ServicesOffered, r.Keywords,
		r.SourceOfData,
	} {
		if s != "" {
			populated++
		}
	}
	if r.NumberOfEmployees != nil {
		populated++
	}
	if r.FoundingYear != nil {
		populated++
	}
	return float64(populated) / float64(recordFieldCount) * 100
}
