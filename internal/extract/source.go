// Package extract pulls raw company records out of registry sources: the
// data.gov.sg datastore API and bulk CSV/XLSX/FTP exports.
package extract

import (
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/registry-etl/internal/model"
)

// Source kinds.
const (
	KindDataGov = "datagov"
	KindCSV     = "csv"
	KindXLSX    = "xlsx"
	KindFTP     = "ftp"
)

// Source describes one registry data source. Columns maps source column
// names to canonical record fields (uen, company_name, website, industry,
// number_of_employees, founding_year, contact_email, contact_phone).
type Source struct {
	Name       string            `mapstructure:"name" yaml:"name"`
	Kind       string            `mapstructure:"kind" yaml:"kind"`
	ResourceID string            `mapstructure:"resource_id" yaml:"resource_id"`
	Path       string            `mapstructure:"path" yaml:"path"`
	URL        string            `mapstructure:"url" yaml:"url"`
	Columns    map[string]string `mapstructure:"columns" yaml:"columns"`
}

// mapRow converts one positional row into a record using the source's column
// map and the header's column positions. Short rows are tolerated.
func (s Source) mapRow(header, row []string, stamp string) model.Record {
	rec := model.Record{
		SourceOfData:        s.Name,
		ExtractionTimestamp: stamp,
	}
	for i, col := range header {
		if i >= len(row) {
			break
		}
		field, ok := s.Columns[col]
		if !ok {
			continue
		}
		setField(&rec, field, row[i])
	}
	return rec
}

// mapValues converts one keyed row (datastore API shape) into a record.
func (s Source) mapValues(values map[string]any, stamp string) model.Record {
	rec := model.Record{
		SourceOfData:        s.Name,
		ExtractionTimestamp: stamp,
	}
	for col, field := range s.Columns {
		raw, ok := values[col]
		if !ok || raw == nil {
			continue
		}
		setField(&rec, field, anyToString(raw))
	}
	return rec
}

func setField(rec *model.Record, field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	switch field {
	case "uen":
		rec.UEN = value
	case "company_name":
		rec.CompanyName = value
	case "website":
		rec.Website = value
	case "industry":
		rec.Industry = value
	case "contact_email":
		rec.ContactEmail = value
	case "contact_phone":
		rec.ContactPhone = value
	case "hq_country":
		rec.HQCountry = value
	case "number_of_employees":
		if n, err := strconv.Atoi(strings.TrimSuffix(value, ".0")); err == nil {
			rec.NumberOfEmployees = &n
		}
	case "founding_year":
		if y, err := strconv.Atoi(strings.TrimSuffix(value, ".0")); err == nil {
			rec.FoundingYear = &y
		}
	}
}

func anyToString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// timestamp returns the extraction stamp applied to a batch of records.
func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
