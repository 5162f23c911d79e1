package persistent

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateLastError(t *testing.T) {
	short := "delete gallery/podium.png: AccessDenied"
	assert.Equal(t, short, truncateLastError(short))

	// the multibyte rune straddles the limit
	long := strings.Repeat("a", maxLastErrorLen-1) + "é" + "tail"
	got := truncateLastError(long)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", maxLastErrorLen-1), got)

	exact := strings.Repeat("é", maxLastErrorLen/2)
	assert.Equal(t, exact, truncateLastError(exact))

	invalid := "key gallery/\xffbad.png"
	assert.True(t, utf8.ValidString(truncateLastError(invalid)))
}
