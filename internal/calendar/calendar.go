// Package calendar reads iCalendar events and turns them into Redmine time
// entries for one issue.
package calendar

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"

	"github.com/christopherklint97/redlog/internal/redmine"
)

type Event struct {
	Summary   string
	StartTime time.Time
	EndTime   time.Time
}

func (e Event) Hours() float64 {
	return math.Round(e.EndTime.Sub(e.StartTime).Hours()*100) / 100
}

// Open returns the calendar at source, which is an http(s) URL or a file
// path.
func Open(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching calendar: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("calendar fetch returned status %d", resp.StatusCode)
		}
		return resp.Body, nil
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("opening calendar file: %w", err)
	}
	return f, nil
}

// Parse decodes every calendar in r and returns the timed events that
// overlap [windowStart, windowEnd), sorted by start time. Events without
// a summary or with a broken start or end are skipped.
func Parse(r io.Reader, windowStart, windowEnd time.Time) ([]Event, error) {
	dec := ical.NewDecoder(r)
	var events []Event

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing calendar: %w", err)
		}

		for _, component := range cal.Children {
			if component.Name != ical.CompEvent {
				continue
			}
			event := ical.Event{Component: component}

			start, err := event.DateTimeStart(time.Local)
			if err != nil {
				continue
			}
			end, err := event.DateTimeEnd(time.Local)
			if err != nil || !end.After(start) {
				continue
			}
			if !start.Before(windowEnd) || !end.After(windowStart) {
				continue
			}

			summary, _ := event.Props.Text(ical.PropSummary)
			if summary == "" {
				continue
			}
			events = append(events, Event{Summary: summary, StartTime: start, EndTime: end})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
	return events, nil
}

// TimeEntries books each event on issueID with its duration as hours and
// its summary as comment. Events shorter than 36 seconds round to zero
// hours and are dropped.
func TimeEntries(events []Event, issueID, activityID int) ([]redmine.TimeEntry, error) {
	var entries []redmine.TimeEntry
	for _, e := range events {
		hours := e.Hours()
		if hours <= 0 {
			continue
		}
		entry, err := redmine.NewTimeEntry(issueID, e.StartTime.Local(), hours, activityID, e.Summary)
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", e.Summary, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
