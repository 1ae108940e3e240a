package feed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, rows string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte(rows), 0o644))
	return path
}

func TestCSVSourceReadsRowsUntilExhausted(t *testing.T) {
	path := writeCSV(t, "datetime,open,high,low,close,volume\n"+
		"2026-01-02T09:30:00,10,11,9,10.5,1000\n"+
		"2026-01-02T09:31:00,10.5,11.5,10,11,2000\n")

	src := NewCSVSource(path, "2006-01-02T15:04:05", nil)
	require.NoError(t, src.Start())
	defer src.Stop()

	res, err := src.LoadNext()
	require.NoError(t, err)
	assert.Equal(t, Produced, res.Status)
	assert.Equal(t, 10.0, res.Bar.Open)
	assert.Equal(t, 10.5, res.Bar.Close)
	assert.Equal(t, 1000.0, res.Bar.Volume)

	res, err = src.LoadNext()
	require.NoError(t, err)
	assert.Equal(t, Produced, res.Status)
	assert.Equal(t, 11.0, res.Bar.Close)

	res, err = src.LoadNext()
	require.NoError(t, err)
	assert.Equal(t, Exhausted, res.Status)
}

func TestCSVSourceRejectsMalformedRows(t *testing.T) {
	path := writeCSV(t, "datetime,open,high,low,close,volume\n"+
		"2026-01-02T09:30:00,not-a-number,11,9,10.5,1000\n")

	src := NewCSVSource(path, "2006-01-02T15:04:05", nil)
	require.NoError(t, src.Start())
	defer src.Stop()

	_, err := src.LoadNext()
	assert.Error(t, err)
}

func TestCSVSourceIsNeverLive(t *testing.T) {
	src := NewCSVSource("unused.csv", "2006-01-02T15:04:05", nil)
	assert.False(t, src.IsLive())
	assert.False(t, src.HasLiveData())
}
