package main

import (
	"testing"
	"time"

	"github.com/christopherklint97/redlog/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want string
	}{
		{"", "2025-03-12"},
		{"today", "2025-03-12"},
		{"Today", "2025-03-12"},
		{"2025-02-28", "2025-02-28"},
		{"yesterday", "2025-03-11"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDate(tt.in, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "(not set)", maskKey(""))
	assert.Equal(t, "***", maskKey("abc"))
	assert.Equal(t, "********cdef", maskKey("456789abcdef"))
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2025, 3, 12, 15, 30, 45, 12, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), startOfDay(in))
}

func TestDeliveredTotalsSkipsRejected(t *testing.T) {
	entries := []store.JournalEntry{
		{IssueID: 1, Hours: 1.5, Outcome: "delivered"},
		{IssueID: 2, Hours: 3, Outcome: "rejected"},
		{IssueID: 3, Hours: 0.25, Outcome: "delivered"},
	}

	hours, count := deliveredTotals(entries)
	assert.Equal(t, 1.75, hours)
	assert.Equal(t, 2, count)

	hours, count = deliveredTotals(nil)
	assert.Zero(t, hours)
	assert.Zero(t, count)
}
