package fetcher

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// ReadCSV parses CSV content into a header row and data rows. Rows with a
// different field count than the header are kept as-is; registry exports are
// frequently ragged and the column mapper handles short rows.
func ReadCSV(r io.Reader) (header []string, rows [][]string, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err = cr.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "fetcher: read csv header")
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, eris.Wrap(err, "fetcher: read csv row")
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// ReadCSVFile opens a local CSV file and parses it with ReadCSV.
func ReadCSVFile(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "fetcher: open csv %s", path)
	}
	defer f.Close() //nolint:errcheck
	return ReadCSV(f)
}
