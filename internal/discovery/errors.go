package discovery

import "fmt"

// MissingLabelError reports a container that lacks a label discovery depends on.
type MissingLabelError struct {
	Label     string
	Container string
}

// NewMissingLabelError creates a new MissingLabelError
func NewMissingLabelError(label, container string) *MissingLabelError {
	return &MissingLabelError{Label: label, Container: container}
}

// Error implements the error interface
func (e *MissingLabelError) Error() string {
	return fmt.Sprintf("label %s not found on container %s", e.Label, e.Container)
}
