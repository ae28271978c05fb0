package encryption

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/docscope/internal/core"
)

func newTestSealer(t *testing.T, fill string) *Sealer {
	t.Helper()
	s, err := NewSealer([]byte(strings.Repeat(fill, KeyLength)))
	require.NoError(t, err)
	return s
}

func TestNewSealer_KeyLength(t *testing.T) {
	_, err := NewSealer([]byte("too-short"))
	assert.Error(t, err)
}

func TestSealer_RoundTrip(t *testing.T) {
	s := newTestSealer(t, "a")

	sealed, err := s.Seal("budget report for Q3")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "budget")
	assert.Contains(t, sealed, separator)

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "budget report for Q3", opened)
}

func TestSealer_FreshNonce(t *testing.T) {
	s := newTestSealer(t, "a")

	first, err := s.Seal("same text")
	require.NoError(t, err)
	second, err := s.Seal("same text")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestSealer_Empty(t *testing.T) {
	s := newTestSealer(t, "a")

	sealed, err := s.Seal("")
	require.NoError(t, err)
	assert.Equal(t, "", sealed)

	opened, err := s.Open("")
	require.NoError(t, err)
	assert.Equal(t, "", opened)
}

func TestSealer_LegacyPlaintext(t *testing.T) {
	s := newTestSealer(t, "a")

	for _, v := range []string{"plain text", "ends with dot.", "zz.not-hex"} {
		opened, err := s.Open(v)
		require.NoError(t, err)
		assert.Equal(t, v, opened)
	}
}

func TestSealer_WrongKeyFails(t *testing.T) {
	sealed, err := newTestSealer(t, "a").Seal("secret")
	require.NoError(t, err)

	opened, err := newTestSealer(t, "b").Open(sealed)
	assert.ErrorIs(t, err, core.ErrContentDecryption)
	assert.Empty(t, opened)
}
