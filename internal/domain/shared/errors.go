package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState  = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrNotCached     = NewDomainError("NOT_CACHED", "Transaction is not present in the in-memory index")
	ErrUnsupported   = NewDomainError("UNSUPPORTED", "Operation is not supported by this section")
	ErrRootImmutable = NewDomainError("ROOT_IMMUTABLE", "The virtual root cannot be removed")
)
