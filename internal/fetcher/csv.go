// Package fetcher reads local delimited source extracts.
package fetcher

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the CSV reader.
type CSVOptions struct {
	Delimiter  rune // default ','
	LazyQuotes bool
	TrimSpace  bool
}

// CSVSource reads one delimited extract row by row. The header row is
// consumed on open and exposed via Header.
type CSVSource struct {
	Header []string

	f    *os.File
	r    *csv.Reader
	trim bool
}

// OpenCSV opens the file at path and reads its header row.
func OpenCSV(path string, opts CSVOptions) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: open %s", path)
	}

	r := csv.NewReader(f)
	if opts.Delimiter != 0 {
		r.Comma = opts.Delimiter
	}
	r.LazyQuotes = opts.LazyQuotes
	r.FieldsPerRecord = -1 // government extracts have ragged rows

	s := &CSVSource{f: f, r: r, trim: opts.TrimSpace}

	header, err := s.next()
	if err != nil {
		f.Close()
		if err == io.EOF {
			return nil, eris.Errorf("csv: %s is empty", path)
		}
		return nil, eris.Wrapf(err, "csv: read header of %s", path)
	}
	s.Header = header

	return s, nil
}

// Next returns the next data row, or io.EOF when the file is exhausted.
func (s *CSVSource) Next() ([]string, error) {
	row, err := s.next()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read row")
	}
	return row, nil
}

func (s *CSVSource) next() ([]string, error) {
	row, err := s.r.Read()
	if err != nil {
		return nil, err
	}
	if s.trim {
		for i, field := range row {
			row[i] = strings.TrimSpace(field)
		}
	}
	return row, nil
}

// Close releases the underlying file.
func (s *CSVSource) Close() error {
	return s.f.Close()
}
