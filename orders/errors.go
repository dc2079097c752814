package orders

// ErrorCode is the error taxonomy shared by every order endpoint.
type ErrorCode string

const (
	CodeSetup      ErrorCode = "setup"
	CodeValidation ErrorCode = "validation"
	CodeAuth       ErrorCode = "auth"
	CodeStale      ErrorCode = "stale"
	CodeUnknown    ErrorCode = "unknown"
)

// SubmitError carries a stable user-facing Portuguese message alongside the
// taxonomy code. Internal diagnostic detail is logged, never attached here.
type SubmitError struct {
	Code    ErrorCode
	Message string
}

func (e *SubmitError) Error() string {
	return string(e.Code) + ": " + e.Message
}

func validationError(message string) *SubmitError {
	return &SubmitError{Code: CodeValidation, Message: message}
}
