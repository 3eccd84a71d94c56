package catalog

import "fmt"

// CapabilityError wraps a module failure with enough context for the
// recovery prompt: which module failed, a short hint at the cause, and the
// remediation command to suggest.
type CapabilityError struct {
	ModuleID    string
	Hint        string
	Remediation string
	Err         error
}

// Error implements error.
func (e *CapabilityError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("module %s: %s: %v", e.ModuleID, e.Hint, e.Err)
	}
	return fmt.Sprintf("module %s: %v", e.ModuleID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// Fail builds a CapabilityError with the standard remediation for a module.
func Fail(moduleID, hint string, err error) *CapabilityError {
	return &CapabilityError{
		ModuleID:    moduleID,
		Hint:        hint,
		Remediation: fmt.Sprintf("gvm fix %s", moduleID),
		Err:         err,
	}
}
