package errors

import "fmt"

type CodedError interface {
	error
	Code() string
}

// ValidationError reports malformed or missing input. Always a client fault.
type ValidationError struct {
	ErrCode string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Code() string {
	return e.ErrCode
}

// AuthenticationError reports a missing, invalid or expired session, or bad
// credentials on login.
type AuthenticationError struct {
	ErrCode string
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

func (e *AuthenticationError) Code() string {
	return e.ErrCode
}

type NotFoundError struct {
	ErrCode string
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Code() string {
	return e.ErrCode
}

type ConflictError struct {
	ErrCode string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Code() string {
	return e.ErrCode
}

// LimitError reports a request refused because a capacity limit is reached.
type LimitError struct {
	ErrCode string
	Message string
}

func (e *LimitError) Error() string {
	return e.Message
}

func (e *LimitError) Code() string {
	return e.ErrCode
}

var (
	ErrUserAlreadyExists  = &ConflictError{ErrCode: "USER_EXISTS", Message: "User already exists!"}
	ErrBookNotFound       = &NotFoundError{ErrCode: "BOOK_NOT_FOUND", Message: "Book not found"}
	ErrReviewNotFound     = &NotFoundError{ErrCode: "REVIEW_NOT_FOUND", Message: "No review found for this user under the given ISBN"}
	ErrUnauthenticated    = &AuthenticationError{ErrCode: "UNAUTHENTICATED", Message: "User not authenticated"}
	ErrInvalidCredentials = &AuthenticationError{ErrCode: "INVALID_CREDENTIALS", Message: "Invalid Login. Check username and password"}
	ErrTooManyWatchers    = &LimitError{ErrCode: "TOO_MANY_WATCHERS", Message: "Too many watchers for this book, try again later"}
)

func NewValidationError(code string, format string, args ...any) *ValidationError {
	return &ValidationError{ErrCode: code, Message: fmt.Sprintf(format, args...)}
}
