package model

// StatusTransportFailure marks a response that never received an HTTP status
const StatusTransportFailure = 0

// Response is the normalized result of executing a Request
type Response struct {
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	// Body is the decoded JSON value for application/json responses and
	// the raw text otherwise.
	Body any `json:"body"`
	// Size is the character length of the JSON-encoded body, not the bytes
	// transferred.
	Size      int   `json:"size"`
	Time      int64 `json:"time"`
	Timestamp int64 `json:"timestamp"`
}

// Failed reports whether the response stands in for a transport failure
func (r *Response) Failed() bool {
	return r.Status == StatusTransportFailure
}

// Outcome extracts the fields that are recorded back onto the request
func (r *Response) Outcome(requestID string) RequestOutcome {
	return RequestOutcome{
		RequestID:  requestID,
		Status:     r.Status,
		StatusText: r.StatusText,
		Time:       r.Time,
		Timestamp:  r.Timestamp,
	}
}
