package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// csvColumns maps header names to record fields. Headers are matched
// case-insensitively after trimming.
var csvColumns = map[string]func(*RawRecord, string){
	"kind":         func(r *RawRecord, v string) { r.Kind = v },
	"name":         func(r *RawRecord, v string) { r.Name = v },
	"first_name":   func(r *RawRecord, v string) { r.FirstName = v },
	"last_name":    func(r *RawRecord, v string) { r.LastName = v },
	"email":        func(r *RawRecord, v string) { r.Email = v },
	"phone":        func(r *RawRecord, v string) { r.Phone = v },
	"job_title":    func(r *RawRecord, v string) { r.JobTitle = v },
	"city":         func(r *RawRecord, v string) { r.City = v },
	"state":        func(r *RawRecord, v string) { r.State = v },
	"sector":       func(r *RawRecord, v string) { r.Sector = v },
	"organization": func(r *RawRecord, v string) { r.Organization = v },
	"org_type":     func(r *RawRecord, v string) { r.OrgType = v },
	"title":        func(r *RawRecord, v string) { r.Title = v },
	"description":  func(r *RawRecord, v string) { r.Description = v },
	"phase":        func(r *RawRecord, v string) { r.Phase = v },
	"status":       func(r *RawRecord, v string) { r.Status = v },
	"body":         func(r *RawRecord, v string) { r.Body = v },
	"submitted_at": func(r *RawRecord, v string) { r.SubmittedAt = v },
	"source_tag":   func(r *RawRecord, v string) { r.SourceTag = v },
}

// CSVParser parses records from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed records.
// The header row must contain a kind column. Unknown columns are ignored.
func (p *CSVParser) Parse(r io.Reader) ([]RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	if _, ok := colIndex["kind"]; !ok {
		return nil, fmt.Errorf("missing required column: kind")
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to RawRecords.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawRecord, error) {
	var records []RawRecord
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		record := RawRecord{LineNum: lineNum}
		for col, idx := range colIndex {
			set, ok := csvColumns[col]
			if !ok || idx >= len(row) {
				continue
			}
			set(&record, strings.TrimSpace(row[idx]))
		}
		records = append(records, record)
	}

	return records, nil
}
