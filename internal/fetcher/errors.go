package fetcher

import "fmt"

// NetworkError means the source could not be reached at all (DNS, connect,
// timeout) on every attempt.
type NetworkError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetch %s: network failure after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPStatusError means the source answered, but never with a 2xx.
type HTTPStatusError struct {
	URL      string
	Status   int
	Body     string
	Attempts int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("fetch %s: HTTP %d after %d attempt(s): %s", e.URL, e.Status, e.Attempts, e.Body)
}
