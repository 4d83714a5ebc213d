package eodhd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate("2024-01-02"))
	assert.True(t, ValidDate("1999-12-31"))

	assert.False(t, ValidDate("2024-1-2"))
	assert.False(t, ValidDate("2024-13-01"))
	assert.False(t, ValidDate("2024-02-30"))
	assert.False(t, ValidDate("02-01-2024"))
	assert.False(t, ValidDate(""))
}

func TestDateAfter(t *testing.T) {
	assert.True(t, DateAfter("2024-06-02", "2024-06-01"))
	assert.False(t, DateAfter("2024-06-01", "2024-06-02"))
	assert.False(t, DateAfter("2024-06-01", "2024-06-01"))
}

func TestParseTimestampNumeric(t *testing.T) {
	ts, err := ParseTimestamp(float64(1700000000))
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), ts)

	// milliseconds collapse to seconds
	ts, err = ParseTimestamp(float64(1700000000000))
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), ts)

	ts, err = ParseTimestamp("1700000000")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), ts)

	_, err = ParseTimestamp(float64(-5))
	assert.Error(t, err)
}

func TestParseTimestampStrings(t *testing.T) {
	ts, err := ParseTimestamp("2023-11-14T22:13:20Z")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), ts)

	ts, err = ParseTimestamp("2023-11-14")
	require.NoError(t, err)
	assert.Equal(t, int64(1699920000), ts) // midnight UTC

	ts, err = ParseTimestamp("14/11/2023")
	require.NoError(t, err)
	assert.Equal(t, int64(1699920000), ts)

	_, err = ParseTimestamp("not a date")
	assert.Error(t, err)
	_, err = ParseTimestamp("")
	assert.Error(t, err)
	_, err = ParseTimestamp(nil)
	assert.Error(t, err)
	_, err = ParseTimestamp([]string{"2023-11-14"})
	assert.Error(t, err)
}

func TestNormalizeSymbols(t *testing.T) {
	assert.Equal(t, "AAPL,MSFT.US", NormalizeSymbols([]string{" AAPL ", "", "MSFT.US"}))
	assert.Equal(t, "", NormalizeSymbols(nil))
}
