package data

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"equity-backtest/internal/model"
)

func TestReadCSV_Basic(t *testing.T) {
	in := `Date,Open,High,Low,Close,Volume
2024-01-02,100.0,102.0,99.0,101.0,1000
2024-01-03,101.0,103.5,100.5,103.0,1200
`
	s, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	require.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), s.Bars[0].Date)
	require.Equal(t, 103.0, s.Bars[1].Close)
	// derived close-to-close return
	require.InDelta(t, 103.0/101.0-1, s.Bars[1].Return, 1e-12)
}

func TestReadCSV_HeaderAliases(t *testing.T) {
	in := `timestamp,open,high,low,close,adj close
2024-01-02,100,102,99,101,100.5
2024-01-03,101,103,100,102,101.5
`
	s, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	// adj close takes precedence over close
	require.Equal(t, 100.5, s.Bars[0].Close)
	require.Equal(t, 101.5, s.Bars[1].Close)
}

func TestReadCSV_MissingColumn(t *testing.T) {
	in := `Date,Open,High,Low
2024-01-02,100,102,99
`
	_, err := ReadCSV(strings.NewReader(in))
	require.ErrorContains(t, err, "missing required columns")
}

func TestReadCSV_BadFloat(t *testing.T) {
	in := `Date,Open,High,Low,Close
2024-01-02,100,102,99,oops
`
	_, err := ReadCSV(strings.NewReader(in))
	require.ErrorContains(t, err, "line 2")
}

func TestReadCSV_InvalidBars(t *testing.T) {
	// High below low must surface the series validation error with the index.
	in := `Date,Open,High,Low,Close
2024-01-02,100,99,102,100
`
	_, err := ReadCSV(strings.NewReader(in))
	var derr *model.DataError
	require.ErrorAs(t, err, &derr)
}

func TestParseDate_Layouts(t *testing.T) {
	for _, s := range []string{"2024-03-05", "2024-03-05T00:00:00Z", "03/05/2024"} {
		d, err := parseDate(s)
		require.NoError(t, err, s)
		require.Equal(t, 2024, d.Year())
	}
	_, err := parseDate("March 5")
	require.Error(t, err)
}
