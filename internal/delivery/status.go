package delivery

import "fmt"

type Outcome int

const (
	Delivered Outcome = iota
	Rejected
	TransientFailure
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Rejected:
		return "rejected"
	case TransientFailure:
		return "transient failure"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusSending
	StatusDelivered
	StatusRejected
	StatusQueued
	StatusRetrying
	StatusOffline
	StatusCleared
	StatusFailed
)

// Status is the last thing the engine did, phrased for the user.
type Status struct {
	Kind    StatusKind
	Message string
}

func (s Status) String() string { return s.Message }

func sendingStatus(issue int) Status {
	return Status{StatusSending, fmt.Sprintf("Sending time entry for Issue #%d...", issue)}
}

func deliveredStatus(issue int) Status {
	return Status{StatusDelivered, fmt.Sprintf("Success: hours for Issue #%d logged.", issue)}
}

func queuedDeliveredStatus(issue int) Status {
	return Status{StatusDelivered, fmt.Sprintf("Success: queued request for Issue #%d sent.", issue)}
}

func rejectedStatus(issue, code int, queued bool) Status {
	msg := fmt.Sprintf("Error: Redmine rejected the request for Issue #%d (HTTP %d).", issue, code)
	if queued {
		msg += " Removed from queue."
	}
	return Status{StatusRejected, msg}
}

func queuedStatus(issue int) Status {
	return Status{StatusQueued, fmt.Sprintf("Offline: request for Issue #%d queued.", issue)}
}

func unreachableStatus(issue int) Status {
	return Status{StatusOffline, fmt.Sprintf("Offline: Redmine unreachable for Issue #%d.", issue)}
}

func retryingAllStatus(n int) Status {
	return Status{StatusRetrying, fmt.Sprintf("Retrying %d queued requests...", n)}
}

func retryingStatus(issue int) Status {
	return Status{StatusRetrying, fmt.Sprintf("Retrying Issue #%d...", issue)}
}

func stoppedStatus() Status {
	return Status{StatusOffline, "Offline: could not flush the queue. Will retry later."}
}

func clearedStatus() Status {
	return Status{StatusCleared, "Offline queue cleared."}
}

func queueFailedStatus(issue int) Status {
	return Status{StatusFailed, fmt.Sprintf("Error: could not queue the request for Issue #%d.", issue)}
}
