package redmine

import (
	"fmt"
	"math"
	"time"
)

const spentOnLayout = "2006-01-02"

// Target is the endpoint and credential a request is sent with.
type Target struct {
	URL    string
	APIKey string
}

// TimeEntry is the payload of a Redmine time entry. Its JSON form is the
// wire body nested under "time_entry".
type TimeEntry struct {
	IssueID    int       `json:"issue_id"`
	Date       time.Time `json:"-"`
	Hours      float64   `json:"hours"`
	ActivityID int       `json:"activity_id"`
	Comments   string    `json:"comments"`
	SpentOn    string    `json:"spent_on"`
}

func NewTimeEntry(issueID int, date time.Time, hours float64, activityID int, comments string) (TimeEntry, error) {
	if issueID <= 0 {
		return TimeEntry{}, fmt.Errorf("issue id must be positive, got %d", issueID)
	}
	if activityID <= 0 {
		return TimeEntry{}, fmt.Errorf("activity id must be positive, got %d", activityID)
	}
	if hours <= 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return TimeEntry{}, fmt.Errorf("hours must be a positive number, got %v", hours)
	}
	return TimeEntry{
		IssueID:    issueID,
		Date:       date,
		Hours:      hours,
		ActivityID: activityID,
		Comments:   comments,
		SpentOn:    date.Format(spentOnLayout),
	}, nil
}

type timeEntryEnvelope struct {
	TimeEntry TimeEntry `json:"time_entry"`
}

type createdTimeEntry struct {
	TimeEntry struct {
		ID int `json:"id"`
	} `json:"time_entry"`
}

type Activity struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
	Active    bool   `json:"active"`
}

type activitiesResponse struct {
	Activities []Activity `json:"time_entry_activities"`
}

type User struct {
	ID        int    `json:"id"`
	Login     string `json:"login"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Mail      string `json:"mail"`
}

type userResponse struct {
	User User `json:"user"`
}

// APIError is returned when Redmine answers with a non-2xx status. The
// request reached the server, so resending it unchanged will not help.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, truncate(e.Body, 200))
}
