package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/gobacktest/core/internal/numtime"
)

// CSVSource is a minimal Source reading OHLCV rows from a plain CSV file:
// datetime,open,high,low,close,volume[,openinterest]. It is the Go
// counterpart of the source's CSVDataBase — open the file and skip the
// header row at Start, tokenize and parse one line per LoadNext, close
// the file at Stop.
type CSVSource struct {
	path       string
	timeLayout string
	loc        *time.Location

	f   *os.File
	r   *csv.Reader
}

// NewCSVSource returns a Source reading path, whose datetime column is
// parsed with timeLayout (a Go reference-time layout) in loc. loc may be
// nil, meaning UTC.
func NewCSVSource(path, timeLayout string, loc *time.Location) *CSVSource {
	if loc == nil {
		loc = time.UTC
	}
	return &CSVSource{path: path, timeLayout: timeLayout, loc: loc}
}

// Start opens the file and skips the header row.
func (s *CSVSource) Start() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("feed.CSVSource: open %q: %w", s.path, err)
	}
	s.f = f
	s.r = csv.NewReader(f)
	s.r.FieldsPerRecord = -1

	if _, err := s.r.Read(); err != nil {
		s.f.Close()
		return fmt.Errorf("feed.CSVSource: read header: %w", err)
	}
	return nil
}

// Stop closes the underlying file.
func (s *CSVSource) Stop() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	s.r = nil
	return err
}

// LoadNext reads and parses one row. A clean EOF reports Exhausted, not
// an error.
func (s *CSVSource) LoadNext() (LoadResult, error) {
	record, err := s.r.Read()
	if err == io.EOF {
		return LoadResult{Status: Exhausted}, nil
	}
	if err != nil {
		return LoadResult{}, fmt.Errorf("feed.CSVSource: read row: %w", err)
	}

	bar, err := s.parseRow(record)
	if err != nil {
		return LoadResult{}, err
	}
	return LoadResult{Status: Produced, Bar: bar}, nil
}

func (s *CSVSource) parseRow(record []string) (Bar, error) {
	if len(record) < 6 {
		return Bar{}, fmt.Errorf("feed.CSVSource: row has %d fields, want at least 6", len(record))
	}

	dt, err := time.ParseInLocation(s.timeLayout, record[0], s.loc)
	if err != nil {
		return Bar{}, fmt.Errorf("feed.CSVSource: parse datetime %q: %w", record[0], err)
	}

	vals := make([]float64, 5)
	for i, field := range record[1:6] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return Bar{}, fmt.Errorf("feed.CSVSource: parse field %d (%q): %w", i+1, field, err)
		}
		vals[i] = v
	}

	bar := Bar{
		Datetime: numtime.ToFloat(dt),
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}
	if len(record) >= 7 {
		oi, err := strconv.ParseFloat(record[6], 64)
		if err != nil {
			return Bar{}, fmt.Errorf("feed.CSVSource: parse open interest %q: %w", record[6], err)
		}
		bar.OpenInterest = oi
	}
	return bar, nil
}

// IsLive always reports false: a CSV file is a finite historical source.
func (s *CSVSource) IsLive() bool { return false }

// HasLiveData always reports false, for the same reason.
func (s *CSVSource) HasLiveData() bool { return false }
