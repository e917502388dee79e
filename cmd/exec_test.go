package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBuySpec(t *testing.T) {
	t.Run("single ticket", func(t *testing.T) {
		wanted, err := parseBuySpec("12=2")
		require.NoError(t, err)
		assert.Equal(t, map[int]int{12: 2}, wanted)
	})

	t.Run("multiple tickets with spaces", func(t *testing.T) {
		wanted, err := parseBuySpec("12=2, 15=1")
		require.NoError(t, err)
		assert.Equal(t, map[int]int{12: 2, 15: 1}, wanted)
	})

	t.Run("malformed pair", func(t *testing.T) {
		_, err := parseBuySpec("12")
		assert.Error(t, err)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		_, err := parseBuySpec("vip=2")
		assert.Error(t, err)
	})

	t.Run("zero quantity", func(t *testing.T) {
		_, err := parseBuySpec("12=0")
		assert.Error(t, err)
	})
}

func TestParseExpiry(t *testing.T) {
	month, year, err := parseExpiry("09/28")
	require.NoError(t, err)
	assert.Equal(t, 9, month)
	assert.Equal(t, 2028, year)

	month, year, err = parseExpiry("12/2030")
	require.NoError(t, err)
	assert.Equal(t, 12, month)
	assert.Equal(t, 2030, year)

	_, _, err = parseExpiry("1228")
	assert.Error(t, err)

	_, _, err = parseExpiry("aa/28")
	assert.Error(t, err)
}
