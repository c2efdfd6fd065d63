package api

import "fmt"

// NetworkError means the backend never answered: connection refused, DNS
// failure, timeout. These are always retryable.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// RejectionError means the backend answered and refused the request
// (validation, auth, not found). The sync engine treats these the same as
// network failures and leaves the entry queued; distinguishing permanent
// rejections is a known improvement over the documented behavior.
type RejectionError struct {
	StatusCode int
	Detail     string
}

func (e *RejectionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend rejected request (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend rejected request (status %d)", e.StatusCode)
}
