package reqid

import (
	"regexp"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		seconds  int64
		expected string
	}{
		{"zero", 0, "000000"},
		{"one second", 1, "000001"},
		{"62 seconds", 62, "000010"},
		{"one minute", 60, "00000y"},
		{"one hour", 3600, "0000w4"},
		{"one day", 86400, "000MTY"},
		{"2024-01-01", 1704067200, "1rK5iq"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, encodeTimestamp(tt.seconds))
		})
	}
}

func TestNewFormat(t *testing.T) {
	id := New()
	require.Regexp(t, regexp.MustCompile(`^req_[0-9A-Za-z]{18}$`), id)
}

func TestNewUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestTimestampPrefixSortable(t *testing.T) {
	earlier := encodeTimestamp(time.Now().Unix())
	later := encodeTimestamp(time.Now().Unix() + 3600)

	ids := []string{later, earlier}
	sort.Strings(ids)
	assert.Equal(t, []string{earlier, later}, ids)
}

func TestRandomBase62Length(t *testing.T) {
	for _, n := range []int{1, 12, 24, 64} {
		s := randomBase62(n)
		assert.Len(t, s, n)
		assert.Regexp(t, regexp.MustCompile(`^[0-9A-Za-z]+$`), s)
	}
}
