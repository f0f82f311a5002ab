package share

import "fmt"

const (
	CodeValidation       = "validation"
	CodeNotFound         = "not_found"
	CodePermissionDenied = "permission_denied"
	CodeRateLimited      = "rate_limited"
	CodeSchemaOutOfDate  = "schema_out_of_date"
	CodeConflict         = "conflict"
	CodeInternal         = "internal"
)

// Error is a share-action failure with a stable code, an HTTP status, and a
// message safe to show the user.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func statusForCode(code string) int {
	switch code {
	case CodeValidation:
		return 400
	case CodeNotFound:
		return 404
	case CodePermissionDenied:
		return 403
	case CodeRateLimited:
		return 429
	case CodeConflict:
		return 409
	case CodeSchemaOutOfDate:
		return 500
	default:
		return 500
	}
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message, Status: statusForCode(code)}
}

func errValidation(message string) *Error {
	return newError(CodeValidation, message)
}

func errNotFound() *Error {
	return newError(CodeNotFound, "Report not found or you do not have access to it.")
}

func errRateLimited() *Error {
	return newError(CodeRateLimited, "You have created too many share links recently. Try again later.")
}

func errConflict() *Error {
	return newError(CodeConflict, "A conflicting share link exists for this report. Try again.")
}

func errSchemaOutOfDate() *Error {
	return newError(CodeSchemaOutOfDate, "Sharing is temporarily unavailable while the database is being upgraded. Contact support if this persists.")
}

func errInternal() *Error {
	return newError(CodeInternal, "Something went wrong. Please try again.")
}
