package session

import "fmt"

// EnvNotFoundError reports a lookup for an environment key that a container
// record does not carry.
type EnvNotFoundError struct {
	Key       string
	Container string
}

// NewEnvNotFoundError creates a new EnvNotFoundError
func NewEnvNotFoundError(key, container string) *EnvNotFoundError {
	return &EnvNotFoundError{Key: key, Container: container}
}

// Error implements the error interface
func (e *EnvNotFoundError) Error() string {
	return fmt.Sprintf("env key not found (%s) for container (%s)", e.Key, e.Container)
}
