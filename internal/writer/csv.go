package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// RowFunc returns the values for one output row, called once per tick.
type RowFunc func() []string

// CSV writes one row per tick to an underlying io.Writer, with a fixed
// header row written once at Start.
type CSV struct {
	headers []string
	rowFunc RowFunc

	out    io.WriteCloser
	csvw   *csv.Writer
	closer bool // true when CSV owns out and must Close it on Stop
}

// NewCSV returns a Writer that writes headers once and then one row per
// Next call (via rowFunc) to w. w is never closed by Stop.
func NewCSV(w io.Writer, headers []string, rowFunc RowFunc) *CSV {
	return &CSV{headers: headers, rowFunc: rowFunc, out: nopCloser{w}}
}

// NewCSVFile opens path for writing and returns a Writer over it; Stop
// closes the file.
func NewCSVFile(path string, headers []string, rowFunc RowFunc) (*CSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("writer.NewCSVFile: create %q: %w", path, err)
	}
	return &CSV{headers: headers, rowFunc: rowFunc, out: f, closer: true}, nil
}

// Start writes the header row.
func (c *CSV) Start() error {
	c.csvw = csv.NewWriter(c.out)
	if err := c.csvw.Write(c.headers); err != nil {
		return fmt.Errorf("writer.CSV: write headers: %w", err)
	}
	c.csvw.Flush()
	return c.csvw.Error()
}

// Next writes one row built from rowFunc.
func (c *CSV) Next() error {
	if err := c.csvw.Write(c.rowFunc()); err != nil {
		return fmt.Errorf("writer.CSV: write row: %w", err)
	}
	c.csvw.Flush()
	return c.csvw.Error()
}

// Stop flushes and, if CSV owns the underlying writer, closes it.
func (c *CSV) Stop() error {
	c.csvw.Flush()
	if err := c.csvw.Error(); err != nil {
		return fmt.Errorf("writer.CSV: flush: %w", err)
	}
	if c.closer {
		return c.out.Close()
	}
	return nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
