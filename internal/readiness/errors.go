package readiness

import "fmt"

// MissingFieldError reports a peer response that parsed as JSON but lacks an
// expected attribute. Distinct from an unreachable peer, which is not an error.
type MissingFieldError struct {
	Field string
	Peer  string
}

// NewMissingFieldError creates a new MissingFieldError
func NewMissingFieldError(field, peer string) *MissingFieldError {
	return &MissingFieldError{Field: field, Peer: peer}
}

// Error implements the error interface
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("there should be a %s json attribute in the response from peer %s", e.Field, e.Peer)
}
