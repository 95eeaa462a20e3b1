package classifier

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Row is one detection from the classifier's output table.
type Row struct {
	Start          float64 // offset within the sample, seconds
	End            float64 // offset within the sample, seconds
	ScientificName string
	CommonName     string
	Confidence     float64 // 0-1
}

// parseResultFile reads the classifier's CSV output. The header row is
// skipped; data rows with fewer than five columns or unparsable numerics
// are dropped. Row order follows the file.
func parseResultFile(path string) (rows []Row, dropped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open result file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // column counts vary, validated per row

	records, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read result file: %w", err)
	}
	if len(records) == 0 {
		return nil, 0, nil
	}

	// first record is the header
	for _, record := range records[1:] {
		row, ok := parseRow(record)
		if !ok {
			dropped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, dropped, nil
}

// parseRow converts one CSV record, reporting false for malformed rows.
func parseRow(record []string) (Row, bool) {
	if len(record) < 5 {
		return Row{}, false
	}

	start, err := strconv.ParseFloat(record[0], 64)
	if err != nil {
		return Row{}, false
	}
	end, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return Row{}, false
	}
	confidence, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return Row{}, false
	}

	return Row{
		Start:          start,
		End:            end,
		ScientificName: record[2],
		CommonName:     record[3],
		Confidence:     confidence,
	}, true
}
