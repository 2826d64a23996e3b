package sift

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ReadCSV loads a table from a CSV file. The first row is the header; every
// other cell must parse as a float64. Empty cells and the literal strings
// "na", "nan", and "null" become NaN so DropMissing can remove them later.
func ReadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer func() { _ = file.Close() }()
	return readCSV(file, path)
}

func readCSV(r io.Reader, name string) (*Table, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header from %s: %w", name, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	table, err := NewTable(header)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV header from %s: %w", name, err)
	}

	row := make([]float64, len(header))
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row from %s: %w", name, err)
		}
		line++
		if len(record) != len(header) {
			return nil, fmt.Errorf("%w: %s line %d has %d cells, header has %d",
				ErrSchemaMismatch, name, line, len(record), len(header))
		}
		for i, cell := range record {
			v, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d column %q: %v",
					ErrInvalidArgument, name, line, header[i], err)
			}
			row[i] = v
		}
		if err := table.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func parseCell(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	switch strings.ToLower(s) {
	case "", "na", "nan", "null":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q as float", cell)
	}
	return v, nil
}

// WriteCSV writes the table to a CSV file with a header row. NaN cells are
// written as empty strings.
func (t *Table) WriteCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(t.names); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	record := make([]string, len(t.names))
	for r := 0; r < t.rows; r++ {
		for c := range t.cols {
			v := t.cols[c][r]
			if math.IsNaN(v) {
				record[c] = ""
			} else {
				record[c] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", r, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
