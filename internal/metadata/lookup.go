package metadata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Unknown is reported for aircraft missing from the lookup table
const Unknown = "Unknown"

// Info describes an airframe
type Info struct {
	Model    string
	Operator string
}

// UnknownInfo is returned when nothing is known about an address
var UnknownInfo = Info{Model: Unknown, Operator: Unknown}

// Lookup resolves an ICAO address (lowercase hex) to airframe information
type Lookup interface {
	Lookup(icao string) Info
}

// Nop knows no aircraft
type Nop struct{}

func (Nop) Lookup(string) Info { return UnknownInfo }

// Record is one row of the aircraft database
type Record struct {
	ICAO24   string
	Model    string
	Operator string
}

func (r Record) info() Info {
	info := Info{Model: r.Model, Operator: r.Operator}
	if info.Model == "" {
		info.Model = Unknown
	}
	if info.Operator == "" {
		info.Operator = Unknown
	}
	return info
}

// Table is an in-memory lookup keyed by lowercase ICAO address
type Table struct {
	entries map[string]Info
}

// NewTable builds a table from records
func NewTable(records []Record) *Table {
	t := &Table{entries: make(map[string]Info, len(records))}
	for _, r := range records {
		t.entries[normalizeICAO(r.ICAO24)] = r.info()
	}
	return t
}

// Lookup returns the entry for icao or UnknownInfo
func (t *Table) Lookup(icao string) Info {
	if info, ok := t.entries[normalizeICAO(icao)]; ok {
		return info
	}
	return UnknownInfo
}

// Len returns the number of entries
func (t *Table) Len() int {
	return len(t.entries)
}

// LoadCSV reads an aircraft database CSV file into a Table
func LoadCSV(path string) (*Table, error) {
	records, err := ReadCSVFile(path)
	if err != nil {
		return nil, err
	}
	return NewTable(records), nil
}

// ReadCSVFile reads the records of an aircraft database CSV file
func ReadCSVFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file %s: %w", path, err)
	}
	defer file.Close()

	records, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, nil
}

// ReadCSV parses CSV data with a header row containing at least the
// icao24, model and operator columns. Rows without an address are skipped.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	headerMap := make(map[string]int, len(header))
	for i, h := range header {
		headerMap[strings.Trim(strings.TrimSpace(h), "'\"")] = i
	}
	if _, ok := headerMap["icao24"]; !ok {
		return nil, errors.New("CSV header has no icao24 column")
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		rec := Record{
			ICAO24:   getField(row, headerMap, "icao24"),
			Model:    getField(row, headerMap, "model"),
			Operator: getField(row, headerMap, "operator"),
		}
		if rec.ICAO24 == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// getField safely retrieves a field from a CSV record by header name
func getField(record []string, headerMap map[string]int, fieldName string) string {
	if idx, ok := headerMap[fieldName]; ok && idx < len(record) {
		return strings.Trim(strings.TrimSpace(record[idx]), "'\"")
	}
	return ""
}

func normalizeICAO(icao string) string {
	return strings.ToLower(strings.TrimSpace(icao))
}
