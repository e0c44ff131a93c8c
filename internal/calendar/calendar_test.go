package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//redlog//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:2@example\r\n" +
	"DTSTAMP:20260304T080000Z\r\n" +
	"DTSTART:20260304T130000Z\r\n" +
	"DTEND:20260304T143000Z\r\n" +
	"SUMMARY:Sprint review\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:1@example\r\n" +
	"DTSTAMP:20260304T080000Z\r\n" +
	"DTSTART:20260304T090000Z\r\n" +
	"DTEND:20260304T100000Z\r\n" +
	"SUMMARY:Standup and triage\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:3@example\r\n" +
	"DTSTAMP:20260304T080000Z\r\n" +
	"DTSTART:20260310T090000Z\r\n" +
	"DTEND:20260310T100000Z\r\n" +
	"SUMMARY:Next week\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:4@example\r\n" +
	"DTSTAMP:20260304T080000Z\r\n" +
	"DTSTART:20260304T160000Z\r\n" +
	"DTEND:20260304T170000Z\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

var (
	windowStart = time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
)

func TestParseFiltersAndSorts(t *testing.T) {
	events, err := Parse(strings.NewReader(sampleICS), windowStart, windowEnd)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, "Standup and triage", events[0].Summary)
	assert.Equal(t, "Sprint review", events[1].Summary)
	assert.Equal(t, 1.5, events[1].Hours())
}

func TestTimeEntries(t *testing.T) {
	events, err := Parse(strings.NewReader(sampleICS), windowStart, windowEnd)
	require.NoError(t, err)

	entries, err := TimeEntries(events, 42, 9)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 42, entries[0].IssueID)
	assert.Equal(t, 1.0, entries[0].Hours)
	assert.Equal(t, "Standup and triage", entries[0].Comments)
	assert.Equal(t, 9, entries[1].ActivityID)
}

func TestTimeEntriesRejectsBadIssue(t *testing.T) {
	events := []Event{{Summary: "x", StartTime: windowStart, EndTime: windowStart.Add(time.Hour)}}
	_, err := TimeEntries(events, 0, 9)
	assert.Error(t, err)
}

func TestOpenFileAndURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.ics")
	require.NoError(t, os.WriteFile(path, []byte(sampleICS), 0600))

	rc, err := Open(context.Background(), path)
	require.NoError(t, err)
	events, err := Parse(rc, windowStart, windowEnd)
	rc.Close()
	require.NoError(t, err)
	assert.Len(t, events, 2)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cal.ics" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(sampleICS))
	}))
	defer server.Close()

	rc, err = Open(context.Background(), server.URL+"/cal.ics")
	require.NoError(t, err)
	rc.Close()

	_, err = Open(context.Background(), server.URL+"/missing.ics")
	assert.Error(t, err)
}
