package metrics

import "time"

// Classification buckets the result of a single completion exchange.
type Classification int

const (
	// Success is an HTTP 200 response.
	Success Classification = iota
	// HTTPFailure is any response with a status other than 200.
	HTTPFailure
	// TransportFailure is a failure before any response was received.
	TransportFailure
)

func (c Classification) String() string {
	switch c {
	case Success:
		return "success"
	case HTTPFailure:
		return "http_error"
	case TransportFailure:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Outcome is the result of one request/response exchange.
//
// Latency is only meaningful when HasLatency is set, which is the case exactly
// when a response was received (Success or HTTPFailure).
type Outcome struct {
	Class      Classification
	Latency    time.Duration
	HasLatency bool
	Tokens     int64
	StatusCode int
	// ErrorKind labels the failure in the breakdown. HTTP failures without a
	// kind are labelled by status code.
	ErrorKind string
	Err       error
}

// Failed reports whether the outcome counts against the fail counter.
func (o Outcome) Failed() bool {
	return o.Class != Success
}
