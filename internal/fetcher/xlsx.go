package fetcher

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadXLSXFile reads the first sheet of an XLSX registry export and returns
// the header row plus data rows as strings.
func ReadXLSXFile(path string) (header []string, rows [][]string, err error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "fetcher: open xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, nil, eris.Errorf("fetcher: xlsx %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	for i, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if i == 0 {
			header = cells
			continue
		}
		rows = append(rows, cells)
	}
	return header, rows, nil
}
