package device

import "fmt"

// DiscoveryError reports a failed device listing. Either the collaborator
// could not be invoked (Cause) or it ran and reported an error (Reported).
type DiscoveryError struct {
	Reported string
	Cause    error
}

func (e *DiscoveryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("device discovery failed: %v", e.Cause)
	}
	return fmt.Sprintf("device discovery failed: %s", e.Reported)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Cause
}
